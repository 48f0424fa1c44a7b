package i18n

import (
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestTranslateSimplifiedChinese(t *testing.T) {
	tr, err := New("zh-CN")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if tr.Language() != language.SimplifiedChinese {
		t.Fatalf("expected zh-Hans, got %s", tr.Language())
	}
	if got := tr.Translate(MsgInstallCompleted); got != "安装完成" {
		t.Fatalf("unexpected translation: %q", got)
	}
	if got := tr.Translatef(MsgAlreadyPresent, "torch"); got != "torch 已安装" {
		t.Fatalf("unexpected formatted translation: %q", got)
	}
}

func TestTranslateEnglishAndFallback(t *testing.T) {
	tr := English()
	if got := tr.Translate(MsgInstallCompleted); got != MsgInstallCompleted {
		t.Fatalf("expected identity translation, got %q", got)
	}

	de, err := New("de-DE")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if de.Language() != language.English {
		t.Fatalf("expected english fallback, got %s", de.Language())
	}
	if got := de.Translatef(MsgInstalledDirect, "jieba"); got != "Installed jieba from the package index" {
		t.Fatalf("unexpected fallback text: %q", got)
	}
}

func TestTranslateUnknownMessagePassesThrough(t *testing.T) {
	tr, err := New("zh-CN")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := tr.Translate("100% custom"); got != "100% custom" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestNewRejectsMalformedTag(t *testing.T) {
	if _, err := New("not a tag!"); err == nil {
		t.Fatal("expected malformed tag to fail")
	}
}

func TestEveryMessageHasChinese(t *testing.T) {
	for key, text := range simplifiedChinese {
		if strings.Count(key, "%") != strings.Count(text, "%") {
			t.Fatalf("verb mismatch for %q: %q", key, text)
		}
	}
}

func TestNilTranslator(t *testing.T) {
	var tr *Translator
	if got := tr.Translate("hello"); got != "hello" {
		t.Fatalf("unexpected nil translation: %q", got)
	}
}
