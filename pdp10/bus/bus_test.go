package bus

import "testing"

type fakeDevice struct {
	coni uint64
	cono uint64
}

func (f *fakeDevice) CONI() uint64      { return f.coni }
func (f *fakeDevice) CONO(bits uint64)  { f.cono = bits }
func (f *fakeDevice) DATAI() uint64     { return f.coni }
func (f *fakeDevice) DATAO(data uint64) { f.coni = data }

func TestNullDeviceDefaultsAreInert(t *testing.T) {
	b := New()
	if v := b.CONI(50); v != 0 {
		t.Errorf("unattached device CONI = %o, want 0", v)
	}
	b.CONO(50, 0777) // must not panic
}

func TestAttachRoutesToDevice(t *testing.T) {
	b := New()
	dev := &fakeDevice{coni: 0123}
	b.Attach(70, dev)
	if v := b.CONI(70); v != 0123 {
		t.Errorf("CONI = %o, want 0123", v)
	}
	b.CONO(70, 0456)
	if dev.cono != 0456 {
		t.Errorf("device did not receive CONO bits")
	}
}

func TestConditionMatch(t *testing.T) {
	b := New()
	b.Attach(70, &fakeDevice{coni: 0300})
	if !b.ConditionMatchesNonzero(70, 0200) {
		t.Errorf("expected nonzero match")
	}
	if b.ConditionMatchesZero(70, 0200) {
		t.Errorf("expected zero-match to be false")
	}
}
