package module

import "testing"

type stub struct {
	name  string
	ports any
}

func (s *stub) Ports() any  { return s.ports }
func (s *stub) Name() string { return s.name }

type readerPort interface{ Read() string }

type readerImpl struct{}

func (readerImpl) Read() string { return "ok" }

type portBundle struct {
	Reader readerPort
}

// TestPortsOf_Direct finds a port when Ports returns it directly
func TestPortsOf_Direct(t *testing.T) {
	t.Parallel()

	m := &stub{name: "a", ports: readerImpl{}}
	r, ok := PortsOf[readerPort](m)
	if !ok {
		t.Fatalf("expected direct port")
	}
	if r.Read() != "ok" {
		t.Fatalf("port misbehaved")
	}
}

// TestPortsOf_StructField finds a port inside an exported struct field
func TestPortsOf_StructField(t *testing.T) {
	t.Parallel()

	m := &stub{name: "b", ports: portBundle{Reader: readerImpl{}}}
	r, ok := PortsOf[readerPort](m)
	if !ok {
		t.Fatalf("expected port from struct field")
	}
	if r.Read() != "ok" {
		t.Fatalf("port misbehaved")
	}
}

// TestPortsOf_Missing reports false when nothing matches
func TestPortsOf_Missing(t *testing.T) {
	t.Parallel()

	m := &stub{name: "c", ports: struct{}{}}
	if _, ok := PortsOf[readerPort](m); ok {
		t.Fatalf("expected no port")
	}
}

// TestMustPortsOf_Panics panics with the module name when missing
func TestMustPortsOf_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic")
		}
	}()
	m := &stub{name: "d", ports: nil}
	_ = MustPortsOf[readerPort](m)
}

// TestRegistry_RoundTrip registers and fetches a port set
func TestRegistry_RoundTrip(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("email", portBundle{Reader: readerImpl{}})
	b, ok := PortsAs[portBundle]("email")
	if !ok {
		t.Fatalf("expected registered ports")
	}
	if b.Reader.Read() != "ok" {
		t.Fatalf("registered port misbehaved")
	}

	if _, ok := PortsAs[portBundle]("missing"); ok {
		t.Fatalf("expected miss for unknown name")
	}
}
