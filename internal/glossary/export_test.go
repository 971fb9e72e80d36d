package glossary

import (
	"strings"
	"testing"
)

func TestStyleSheet(t *testing.T) {
	t.Parallel()

	got := StyleSheet(`<style>.a { color: red; }</style><div data-dictionary="A">x</div><style>.b {}</style>`)
	if got != ".a { color: red; }" {
		t.Errorf("StyleSheet() = %q", got)
	}
	if got := StyleSheet(`<div>no style</div>`); got != "" {
		t.Errorf("StyleSheet() = %q, want empty", got)
	}
}

func TestExportBlock(t *testing.T) {
	t.Parallel()

	block := `<div data-dictionary="JMdict"><span class="selected">JMdict</span>` +
		`<img data-original-src="pic.png" src="data:image/png;base64,UE5H"/></div>`
	css := `[data-dictionary="JMdict"] li { color: blue; } [data-dictionary="Other"] li { color: red; }`

	got, err := ExportBlock(block, css, "JMdict")
	if err != nil {
		t.Fatalf("ExportBlock: %v", err)
	}

	wantPrefix := `<div class="yomitan-glossary" style="text-align: left;"><ol><div data-dictionary="JMdict">`
	if !strings.HasPrefix(got, wantPrefix) {
		t.Errorf("ExportBlock() prefix = %s", got)
	}
	if !strings.Contains(got, `<img src="pic.png"/>`) {
		t.Errorf("image should be reverted to its export filename: %s", got)
	}
	if strings.Contains(got, "base64") {
		t.Errorf("inline data should not be exported: %s", got)
	}
	wantSuffix := `</ol></div><style>[data-dictionary="JMdict"] li { color: blue; }</style>`
	if !strings.HasSuffix(got, wantSuffix) {
		t.Errorf("ExportBlock() suffix = %s, want suffix %s", got, wantSuffix)
	}
}

func TestExportBlock_NoStyle(t *testing.T) {
	t.Parallel()

	got, err := ExportBlock(`<div data-dictionary="A">x</div>`, "", "A")
	if err != nil {
		t.Fatalf("ExportBlock: %v", err)
	}
	want := `<div class="yomitan-glossary" style="text-align: left;"><ol><div data-dictionary="A">x</div></ol></div>`
	if got != want {
		t.Errorf("ExportBlock() = %s, want %s", got, want)
	}
}
