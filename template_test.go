package xsdtree

import (
	"bytes"
	"errors"
	"regexp"
	"testing"

	"github.com/agentflare-ai/go-xmldom"
)

const deepSchemaXML = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="root">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="a">
					<xs:complexType>
						<xs:sequence>
							<xs:element name="b">
								<xs:complexType>
									<xs:sequence>
										<xs:element name="c" minOccurs="0">
											<xs:complexType>
												<xs:sequence>
													<xs:element name="d" type="xs:string"/>
													<xs:element name="e" type="xs:string"/>
												</xs:sequence>
											</xs:complexType>
										</xs:element>
										<xs:element name="f" type="xs:string"/>
									</xs:sequence>
								</xs:complexType>
							</xs:element>
						</xs:sequence>
					</xs:complexType>
				</xs:element>
				<xs:element name="g" type="xs:string"/>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
</xs:schema>`

const paymentSchemaXML = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="payment">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="amount" type="xs:decimal"/>
				<xs:choice>
					<xs:element name="card">
						<xs:complexType>
							<xs:sequence>
								<xs:element name="number" type="xs:string"/>
							</xs:sequence>
						</xs:complexType>
					</xs:element>
					<xs:element name="transfer" type="xs:string"/>
					<xs:element name="cash" type="xs:string"/>
				</xs:choice>
				<xs:element name="note" type="xs:string" minOccurs="0"/>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
</xs:schema>`

const adminSchemaXML = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="config">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="title" type="xs:string" minOccurs="0"/>
				<xs:element name="admin" minOccurs="0">
					<xs:complexType>
						<xs:sequence>
							<xs:element name="user" type="xs:string"/>
							<xs:element name="audit" minOccurs="0">
								<xs:complexType>
									<xs:sequence>
										<xs:element name="level" type="xs:int"/>
									</xs:sequence>
								</xs:complexType>
							</xs:element>
						</xs:sequence>
					</xs:complexType>
				</xs:element>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
</xs:schema>`

const shippingSchemaXML = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="shipping">
		<xs:complexType>
			<xs:sequence>
				<xs:choice>
					<xs:sequence>
						<xs:element name="street" type="xs:string"/>
						<xs:element name="city" type="xs:string"/>
					</xs:sequence>
					<xs:element name="pickup" type="xs:string"/>
					<xs:element name="locker" type="xs:string"/>
				</xs:choice>
				<xs:choice>
					<xs:element name="express" type="xs:string"/>
					<xs:sequence>
						<xs:element name="carrier" type="xs:string"/>
						<xs:element name="service" type="xs:string"/>
					</xs:sequence>
				</xs:choice>
				<xs:choice>
					<xs:choice>
						<xs:element name="email" type="xs:string"/>
						<xs:element name="sms" type="xs:string"/>
					</xs:choice>
					<xs:element name="none" type="xs:string"/>
				</xs:choice>
				<xs:choice>
					<xs:sequence>
						<xs:element name="gift" type="xs:string" minOccurs="0"/>
					</xs:sequence>
					<xs:sequence>
						<xs:element name="invoice" type="xs:string"/>
					</xs:sequence>
				</xs:choice>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
</xs:schema>`

var tagPattern = regexp.MustCompile(`<(/?)([A-Za-z_][\w.-]*)[^>]*>`)

// checkBalanced fails unless every open tag in out is closed by the matching
// close tag in stack order, and the whole output parses as one document.
func checkBalanced(t *testing.T, out string) {
	t.Helper()

	var stack []string
	roots := 0
	for _, m := range tagPattern.FindAllStringSubmatch(out, -1) {
		if m[1] == "" {
			if len(stack) == 0 {
				roots++
			}
			stack = append(stack, m[2])
			continue
		}
		if len(stack) == 0 || stack[len(stack)-1] != m[2] {
			t.Fatalf("unbalanced close tag </%s> in %s", m[2], out)
		}
		stack = stack[:len(stack)-1]
	}
	if len(stack) != 0 {
		t.Fatalf("unclosed tags %v in %s", stack, out)
	}
	if roots != 1 {
		t.Fatalf("%d top-level elements in %s", roots, out)
	}

	if _, err := xmldom.Decode(bytes.NewReader([]byte(out))); err != nil {
		t.Fatalf("template is not well-formed: %v\n%s", err, out)
	}
}

func synthesize(t *testing.T, schemaXML, root string, mode Mode, opts ...TemplateOption) string {
	t.Helper()

	schema := parseSchema(t, schemaXML)
	f, err := schema.Flatten(root)
	if err != nil {
		t.Fatalf("Flatten(%q) error = %v", root, err)
	}
	out, err := Synthesize(f.Elements(), root, mode, opts...)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	checkBalanced(t, out)
	return out
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		root   string
		mode   Mode
		opts   []TemplateOption
		want   string
	}{
		{
			name:   "order maximum",
			schema: orderSchemaXML,
			root:   "order",
			mode:   ModeMaximum,
			want:   "<order version='2'><id></id><customer><name></name><email></email></customer><item currency='EUR'><sku></sku><qty></qty></item></order>",
		},
		{
			name:   "order minimum",
			schema: orderSchemaXML,
			root:   "order",
			mode:   ModeMinimum,
			want:   "<order version='2'><id></id><customer><name></name></customer><item currency='EUR'><sku></sku><qty></qty></item></order>",
		},
		{
			name:   "deep maximum",
			schema: deepSchemaXML,
			root:   "root",
			mode:   ModeMaximum,
			want:   "<root><a><b><c><d></d><e></e></c><f></f></b></a><g></g></root>",
		},
		{
			name:   "deep minimum closes several levels at once",
			schema: deepSchemaXML,
			root:   "root",
			mode:   ModeMinimum,
			want:   "<root><a><b><f></f></b></a><g></g></root>",
		},
		{
			name:   "choice keeps first alternative",
			schema: paymentSchemaXML,
			root:   "payment",
			mode:   ModeMaximum,
			want:   "<payment><amount></amount><card><number></number></card><note></note></payment>",
		},
		{
			name:   "choice in minimum mode",
			schema: paymentSchemaXML,
			root:   "payment",
			mode:   ModeMinimum,
			want:   "<payment><amount></amount><card><number></number></card></payment>",
		},
		{
			name:   "group alternatives take part in choice collapsing",
			schema: shippingSchemaXML,
			root:   "shipping",
			mode:   ModeMaximum,
			want:   "<shipping><street></street><city></city><express></express><email></email><gift></gift></shipping>",
		},
		{
			name:   "pruned group alternative yields to the next",
			schema: shippingSchemaXML,
			root:   "shipping",
			mode:   ModeMinimum,
			want:   "<shipping><street></street><city></city><express></express><email></email><invoice></invoice></shipping>",
		},
		{
			name:   "medium prunes below trigger",
			schema: adminSchemaXML,
			root:   "config",
			mode:   ModeMedium,
			want:   "<config><title></title><admin><user></user></admin></config>",
		},
		{
			name:   "minimum drops optional subtrees",
			schema: adminSchemaXML,
			root:   "config",
			mode:   ModeMinimum,
			want:   "<config></config>",
		},
		{
			name:   "medium with custom trigger",
			schema: adminSchemaXML,
			root:   "config",
			mode:   ModeMedium,
			opts:   []TemplateOption{WithPruneTriggers("config")},
			want:   "<config></config>",
		},
		{
			name:   "optional subtree root is kept",
			schema: adminSchemaXML,
			root:   "config/admin",
			mode:   ModeMinimum,
			want:   "<admin><user></user></admin>",
		},
		{
			name:   "leaf root",
			schema: orderSchemaXML,
			root:   "order/item/qty",
			mode:   ModeMinimum,
			want:   "<qty></qty>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := synthesize(t, tt.schema, tt.root, tt.mode, tt.opts...)
			if got != tt.want {
				t.Errorf("Synthesize() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestSynthesizeModeOrdering(t *testing.T) {
	for _, schemaXML := range []string{orderSchemaXML, deepSchemaXML, adminSchemaXML, paymentSchemaXML} {
		schema := parseSchema(t, schemaXML)
		root := schema.ElementNames()[0]

		f, err := schema.Flatten(root)
		if err != nil {
			t.Fatalf("Flatten(%q) error = %v", root, err)
		}

		var lengths []int
		for _, mode := range []Mode{ModeMinimum, ModeMedium, ModeMaximum} {
			out, err := Synthesize(f.Elements(), root, mode)
			if err != nil {
				t.Fatalf("Synthesize(%s) error = %v", mode, err)
			}
			checkBalanced(t, out)
			lengths = append(lengths, len(tagPattern.FindAllString(out, -1)))
		}
		if lengths[0] > lengths[1] || lengths[1] > lengths[2] {
			t.Errorf("%s: tag counts %v not ordered minimum <= medium <= maximum", root, lengths)
		}
	}
}

func TestSynthesizeRecursiveSchema(t *testing.T) {
	got := synthesize(t, recursiveSchemaXML, "node", ModeMaximum)
	want := "<node><label></label><node></node></node>"
	if got != want {
		t.Errorf("Synthesize() = %s, want %s", got, want)
	}
}

func TestSynthesizeEscapesAttributeValues(t *testing.T) {
	elements := []ElementInfo{{
		Name: "q",
		Path: "q",
		Attributes: map[string]AttributeInfo{
			"expr": {Use: RequiredUse, Fixed: "a<b & 'c'"},
		},
	}}

	got, err := Synthesize(elements, "q", ModeMaximum)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	want := "<q expr='a&lt;b &amp; &apos;c&apos;'></q>"
	if got != want {
		t.Errorf("Synthesize() = %s, want %s", got, want)
	}
	checkBalanced(t, got)
}

func TestSynthesizeErrors(t *testing.T) {
	schema := parseSchema(t, orderSchemaXML)
	f, err := schema.Flatten("order")
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}

	tests := []struct {
		name    string
		root    string
		mode    Mode
		wantErr error
	}{
		{"unknown mode", "order", Mode("full"), ErrInvalidFullnessMode},
		{"mode is case sensitive", "order", Mode("Maximum"), ErrInvalidFullnessMode},
		{"empty mode", "order", Mode(""), ErrInvalidFullnessMode},
		{"root not listed", "order/shipment", ModeMaximum, ErrSchemaResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Synthesize(f.Elements(), tt.root, tt.mode)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Synthesize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"minimum", "medium", "maximum"} {
		if m, err := ParseMode(s); err != nil || string(m) != s {
			t.Errorf("ParseMode(%q) = %q, %v", s, m, err)
		}
	}

	_, err := ParseMode("MINIMUM")
	var me *ModeError
	if !errors.As(err, &me) || me.Mode != "MINIMUM" {
		t.Errorf("ParseMode(MINIMUM) error = %v", err)
	}
}
