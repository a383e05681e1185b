package modkit

import "testing"

type fakeModule struct{ name string }

func (f *fakeModule) Ports() any  { return nil }
func (f *fakeModule) Name() string { return f.name }

// TestModuleContract verifies a trivial implementation satisfies Module
func TestModuleContract(t *testing.T) {
	t.Parallel()

	var m Module = &fakeModule{name: "email"}
	if m.Name() != "email" {
		t.Fatalf("Name mismatch got=%q", m.Name())
	}
	if m.Ports() != nil {
		t.Fatalf("Ports should be nil for fake module")
	}
}

// TestBuild_NameAndPorts applies options and reads back the built struct
func TestBuild_NameAndPorts(t *testing.T) {
	t.Parallel()

	type ports struct{ N int }
	b := Build(WithName("phone"), WithPorts(ports{N: 7}))

	if b.Name != "phone" {
		t.Fatalf("Build name got=%q want=%q", b.Name, "phone")
	}
	p, ok := b.Ports.(ports)
	if !ok || p.N != 7 {
		t.Fatalf("Build ports got=%#v", b.Ports)
	}
}

// TestBuild_Defaults returns zero values with no options
func TestBuild_Defaults(t *testing.T) {
	t.Parallel()

	b := Build()
	if b.Name != "" || b.Ports != nil {
		t.Fatalf("Build defaults got=%#v", b)
	}
}
