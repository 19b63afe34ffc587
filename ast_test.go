package ember

import "testing"

func TestSetFieldMaskPropagates(t *testing.T) {
	leaf1 := NewTerm("foo")
	leaf2 := NewTerm("bar")
	root := NewIntersectNode(leaf1, NewNotNode(leaf2))

	SetFieldMask(root, 0x3)

	if root.Opts.FieldMask != 0x3 {
		t.Fatalf("root mask = %d, want 3", root.Opts.FieldMask)
	}
	if leaf1.Opts.FieldMask != 0x3 {
		t.Fatalf("leaf1 mask = %d, want 3", leaf1.Opts.FieldMask)
	}
	if root.Children[1].Opts.FieldMask != 0x3 {
		t.Fatalf("not-node mask = %d, want 3", root.Children[1].Opts.FieldMask)
	}
	if leaf2.Opts.FieldMask != 0x3 {
		t.Fatalf("leaf2 mask = %d, want 3 (should propagate through Child)", leaf2.Opts.FieldMask)
	}
}

func TestSetGlobalFilter(t *testing.T) {
	root := NewTerm("hello")
	filter := NewNumericRange("price", 0, 100, false, false)

	wrapped := SetGlobalFilter(root, filter)
	if wrapped.Type != NodeIntersect {
		t.Fatalf("expected NodeIntersect, got %v", wrapped.Type)
	}
	if len(wrapped.Children) != 2 || wrapped.Children[0] != root || wrapped.Children[1] != filter {
		t.Fatalf("expected [root, filter] children, got %v", wrapped.Children)
	}

	// nil root just returns the filter itself.
	if got := SetGlobalFilter(nil, filter); got != filter {
		t.Fatalf("SetGlobalFilter(nil, filter) = %v, want filter", got)
	}
}

func TestApplyAttributes(t *testing.T) {
	leaf := NewTerm("x")
	root := NewUnionNode(leaf, NewOptionalNode(NewTerm("y")))

	if err := ApplyAttributes(root, map[string]string{"weight": "5.0"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if root.Opts.Weight != 5.0 || leaf.Opts.Weight != 5.0 {
		t.Fatalf("expected weight 5.0 everywhere, root=%v leaf=%v", root.Opts.Weight, leaf.Opts.Weight)
	}
	if root.Children[1].Child.Opts.Weight != 5.0 {
		t.Fatalf("expected weight to reach through Optional -> Child")
	}
}

func TestApplyAttributesUnknownKey(t *testing.T) {
	root := NewTerm("x")
	err := ApplyAttributes(root, map[string]string{"bogus": "1"})
	if !IsKind(err, NoOption) {
		t.Fatalf("expected NoOption error for unknown attribute, got %v", err)
	}
}

func TestApplyAttributesOutOfRangeValue(t *testing.T) {
	root := NewTerm("x")
	err := ApplyAttributes(root, map[string]string{"weight": "-1"})
	if !IsKind(err, Syntax) {
		t.Fatalf("expected Syntax error for negative weight, got %v", err)
	}
}

func TestApplyAttributesSlopAndInorder(t *testing.T) {
	root := NewTerm("x")
	if err := ApplyAttributes(root, map[string]string{"slop": "2", "inorder": "true"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root.Opts.MaxSlop != 2 || !root.Opts.InOrder {
		t.Fatalf("got MaxSlop=%d InOrder=%v, want 2 true", root.Opts.MaxSlop, root.Opts.InOrder)
	}
}

func TestExpandPrefixNode(t *testing.T) {
	dict := newTestDict("help", "hello", "helmet", "world")
	cfg := DefaultEngineConfig()

	n := NewPrefix("hel")
	expanded, err := Expand(n, dict, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expanded.Type != NodeUnion {
		t.Fatalf("expected NodeUnion, got %v", expanded.Type)
	}
	if len(expanded.Children) != 3 {
		t.Fatalf("expected 3 expanded terms, got %d: %v", len(expanded.Children), expanded.Children)
	}
	for _, c := range expanded.Children {
		if c.Type != NodeTerm {
			t.Fatalf("expected every expanded child to be NodeTerm, got %v", c.Type)
		}
	}
}

func TestExpandPrefixTooShort(t *testing.T) {
	dict := newTestDict("ab")
	cfg := DefaultEngineConfig()
	cfg.MinTermPrefix = 3

	_, err := Expand(NewPrefix("ab"), dict, cfg)
	if err == nil || !IsKind(err, Syntax) {
		t.Fatalf("expected Syntax error for too-short prefix, got %v", err)
	}
}

func TestExpandRecursesThroughIntersect(t *testing.T) {
	dict := newTestDict("cat", "car", "cart")
	cfg := DefaultEngineConfig()

	root := NewIntersectNode(NewPrefix("ca"), NewTerm("literal"))
	expanded, err := Expand(root, dict, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expanded.Type != NodeIntersect || len(expanded.Children) != 2 {
		t.Fatalf("expected intersect of 2 children, got %v", expanded)
	}
	if expanded.Children[0].Type != NodeUnion {
		t.Fatalf("expected first child to be an expanded union, got %v", expanded.Children[0].Type)
	}
	if expanded.Children[1].Type != NodeTerm || expanded.Children[1].Term != "literal" {
		t.Fatalf("expected second child to pass through unchanged, got %v", expanded.Children[1])
	}
}
