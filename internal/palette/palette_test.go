package palette

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

var testItems = []Item{
	{Label: "About Penc", Action: "about"},
	{Separator: true},
	{Label: "Disable for current app", Action: "toggle_app_disable", Disabled: true},
	{Label: "Quit", Action: "quit", Shortcut: "q"},
}

func TestRofiRows_MarkNonSelectable(t *testing.T) {
	l := newLauncher("rofi")
	rows := l.rows(testItems)

	if rows[0] != "About Penc" {
		t.Fatalf("expected plain row, got %q", rows[0])
	}
	for _, i := range []int{1, 2} {
		if !strings.HasSuffix(rows[i], "\x00nonselectable\x1ftrue") {
			t.Fatalf("expected row %d to be nonselectable, got %q", i, rows[i])
		}
		if strings.Count(rows[i], "\x00") != 1 {
			t.Fatalf("expected a single NUL separator, got %q", rows[i])
		}
	}
	if rows[3] != "Quit  [q]" {
		t.Fatalf("expected shortcut hint, got %q", rows[3])
	}
}

func TestRofiArgs_IndexFormatAndFirstSelectableRow(t *testing.T) {
	l := newLauncher("rofi")
	items := append([]Item{{Separator: true}}, testItems...)
	args := l.args("penc", "msg", items)

	if !containsArgs(args, "-format", "i") {
		t.Fatalf("expected -format i in args, got %v", args)
	}
	if !containsArgs(args, "-selected-row", "1") {
		t.Fatalf("expected -selected-row 1 in args, got %v", args)
	}
	if !containsArgs(args, "-mesg", "msg") {
		t.Fatalf("expected message in args, got %v", args)
	}
}

func TestParse_IndexAndLabel(t *testing.T) {
	rofi := newLauncher("rofi")
	got, err := rofi.parse("3", testItems, rofi.rows(testItems))
	if err != nil || got.Action != "quit" {
		t.Fatalf("expected quit, got %#v (%v)", got, err)
	}
	if _, err := rofi.parse("9", testItems, rofi.rows(testItems)); err == nil {
		t.Fatalf("expected out of range error")
	}

	dmenu := newLauncher("dmenu")
	got, err = dmenu.parse("Quit  [q]", testItems, dmenu.rows(testItems))
	if err != nil || got.Action != "quit" {
		t.Fatalf("expected quit, got %#v (%v)", got, err)
	}
}

func TestRows_DisambiguatesDuplicateLabelsForTextLaunchers(t *testing.T) {
	items := []Item{{Label: "Dup", Action: "a"}, {Label: "Dup", Action: "b"}}

	rows := newLauncher("dmenu").rows(items)
	if rows[0] != "Dup" || rows[1] != "Dup (2)" {
		t.Fatalf("expected disambiguated labels, got %q", rows)
	}
	rows = newLauncher("fuzzel").rows(items)
	if rows[1] != "Dup" {
		t.Fatalf("expected index launcher to keep labels, got %q", rows)
	}
}

func TestTerminalBackend_NumberAndShortcut(t *testing.T) {
	var out bytes.Buffer
	b := NewTerminalBackend(strings.NewReader("2\n"), &out)
	got, err := b.Show("penc", testItems, "")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if got.Action != "quit" {
		t.Fatalf("expected quit (second selectable row), got %q", got.Action)
	}
	if !strings.Contains(out.String(), " 1) About Penc") || strings.Contains(out.String(), ") Disable for current app") {
		t.Fatalf("unexpected listing:\n%s", out.String())
	}

	b = NewTerminalBackend(strings.NewReader("7\nq\n"), &out)
	got, err = b.Show("penc", testItems, "")
	if err != nil || got.Action != "quit" {
		t.Fatalf("expected shortcut to select quit, got %#v (%v)", got, err)
	}
}

func TestTerminalBackend_EmptyCancels(t *testing.T) {
	b := NewTerminalBackend(strings.NewReader(""), &bytes.Buffer{})
	if _, err := b.Show("", testItems, ""); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

type scriptedBackend struct {
	picks []Item
}

func (s *scriptedBackend) Name() string { return "scripted" }

func (s *scriptedBackend) Show(string, []Item, string) (Item, error) {
	if len(s.picks) == 0 {
		return Item{}, ErrCancelled
	}
	it := s.picks[0]
	s.picks = s.picks[1:]
	return it, nil
}

func TestChoose_SkipsNonSelectable(t *testing.T) {
	b := &scriptedBackend{picks: []Item{testItems[1], testItems[2], testItems[0]}}
	got, err := Choose(b, "penc", testItems, "")
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if got.Action != "about" {
		t.Fatalf("expected about, got %q", got.Action)
	}
	if _, err := Choose(b, "penc", []Item{{Separator: true}}, ""); err == nil {
		t.Fatalf("expected error without selectable items")
	}
}

func containsArgs(args []string, a string, b string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == a && args[i+1] == b {
			return true
		}
	}
	return false
}
