package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinChinese(t *testing.T) {
	c, err := Builtin("zh-CN.UTF-8")
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if got := c.T("Manual Refresh"); got != "手动刷新" {
		t.Errorf("T(Manual Refresh) = %q", got)
	}
	if got := c.T("not in catalog"); got != "not in catalog" {
		t.Errorf("missing msgid should fall back, got %q", got)
	}
}

func TestBuiltinEnglishIsIdentity(t *testing.T) {
	c, err := Builtin("en")
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if got := c.T("Bound:"); got != "Bound:" {
		t.Errorf("T(Bound:) = %q", got)
	}
}

func TestBuiltinUnknownLocale(t *testing.T) {
	if _, err := Builtin("xx_YY"); err == nil {
		t.Fatal("expected error for unknown locale")
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	data := "[messages]\n\"Manual Refresh\" = \"立即刷新\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load("zh_CN", path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.T("Manual Refresh"); got != "立即刷新" {
		t.Errorf("override not applied: %q", got)
	}
	if got := c.T("Bound:"); got != "已绑定:" {
		t.Errorf("built-in entry lost: %q", got)
	}
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	if got := c.T("x"); got != "x" {
		t.Errorf("nil catalog T = %q", got)
	}
}
