package dispatch

// Interface is the static per-protocol-interface metadata a Harness stores
// alongside a Zombie entry. The table never frees or dereferences this
// payload, so callers are expected to hand it a value with process/program
// lifetime, typically a package-level var.
type Interface struct {
	Name    string
	Version uint32
}

func (i *Interface) String() string {
	if i == nil {
		return "<nil interface>"
	}
	return i.Name
}
