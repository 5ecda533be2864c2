package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const catalogSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="catalog">
		<xs:complexType>
			<xs:sequence>
				<xs:element name="title" type="xs:string"/>
				<xs:element name="entry" minOccurs="0" maxOccurs="unbounded">
					<xs:complexType>
						<xs:sequence>
							<xs:element name="code" type="xs:string"/>
						</xs:sequence>
						<xs:attribute name="id" type="xs:ID" use="required"/>
					</xs:complexType>
				</xs:element>
			</xs:sequence>
		</xs:complexType>
	</xs:element>
</xs:schema>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := runWithArgs(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	schema := writeFile(t, "catalog.xsd", catalogSchema)
	config := writeFile(t, "xsdtree.yaml", "schema: "+schema+"\npath: catalog\nmode: minimum\n")
	broken := writeFile(t, "broken.xsd", `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
	<xs:element name="a" maxOccurs="2"/>
</xs:schema>`)

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "roots",
			args:       []string{"roots", "-s", schema},
			wantStdout: "catalog\n",
		},
		{
			name:       "template maximum",
			args:       []string{"template", "catalog", "-s", schema},
			wantStdout: "<catalog><title></title><entry id=''><code></code></entry></catalog>\n",
		},
		{
			name:       "template from config",
			args:       []string{"template", "-c", config},
			wantStdout: "<catalog><title></title></catalog>\n",
		},
		{
			name:       "flag overrides config",
			args:       []string{"template", "-c", config, "--mode", "maximum", "catalog/entry"},
			wantStdout: "<entry id=''><code></code></entry>\n",
		},
		{
			name:       "elements",
			args:       []string{"elements", "catalog/entry", "-s", schema},
			wantStdout: "catalog/entry\tanyType\t0..unbounded\t-\t@id\ncatalog/entry/code\tstring\t1..1\tsequence\n",
		},
		{
			name:       "outline",
			args:       []string{"outline", "catalog/entry", "-s", schema},
			wantStdout: "    [Element /catalog/entry   MinOccurs = 0, MaxOccurs = unbounded] of type [anyType]\n",
		},
		{
			name:       "check ok",
			args:       []string{"check", "-s", schema},
			wantStdout: schema + ": ok\n",
		},
		{
			name:       "check problems",
			args:       []string{"check", "-s", broken},
			wantCode:   1,
			wantStdout: "global element cannot have occurrence bounds",
			wantStderr: "1 problem(s)",
		},
		{
			name:       "unknown path",
			args:       []string{"template", "catalog/missing", "-s", schema},
			wantCode:   1,
			wantStderr: "schema path does not resolve",
		},
		{
			name:       "bad mode",
			args:       []string{"template", "catalog", "-s", schema, "-m", "full"},
			wantCode:   2,
			wantStderr: "invalid fullness mode",
		},
		{
			name:       "missing schema",
			args:       []string{"roots"},
			wantCode:   2,
			wantStderr: "no schema given",
		},
		{
			name:       "missing path",
			args:       []string{"elements", "-s", schema},
			wantCode:   2,
			wantStderr: "no element path given",
		},
		{
			name:       "unknown flag",
			args:       []string{"roots", "--bogus"},
			wantCode:   2,
			wantStderr: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := run(tt.args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d\nstderr: %s", code, tt.wantCode, stderr)
			}
			if tt.wantCode == 0 && !strings.HasPrefix(stdout, tt.wantStdout) {
				t.Errorf("stdout = %q, want prefix %q", stdout, tt.wantStdout)
			}
			if tt.wantCode != 0 && !strings.Contains(stdout, tt.wantStdout) {
				t.Errorf("stdout = %q, want %q", stdout, tt.wantStdout)
			}
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stderr = %q, want %q", stderr, tt.wantStderr)
			}
		})
	}
}
