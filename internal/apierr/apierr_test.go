package apierr

import "testing"

func TestNewAndError(t *testing.T) {
	err := New(CodeRepeatedTransaction, "signature %q already used", "0xabc")
	if err.Code != CodeRepeatedTransaction {
		t.Errorf("expected code %v, got %v", CodeRepeatedTransaction, err.Code)
	}
	want := "RepeatedTransaction: signature \"0xabc\" already used"
	if err.Error() != want {
		t.Errorf("expected error %q, got %q", want, err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(CodeDatabaseError, nil) != nil {
		t.Errorf("expected Wrap(nil) to return nil")
	}
}

func TestWrapPreservesMessage(t *testing.T) {
	inner := New(CodeUnknown, "boom")
	wrapped := Wrap(CodeDatabaseError, inner)
	if wrapped.Code != CodeDatabaseError {
		t.Errorf("expected wrapped code %v, got %v", CodeDatabaseError, wrapped.Code)
	}
	if wrapped.Message != inner.Error() {
		t.Errorf("expected message %q, got %q", inner.Error(), wrapped.Message)
	}
}

func TestCodeStringUnknown(t *testing.T) {
	var c Code = 9999
	if c.String() != "Unknown" {
		t.Errorf("expected Unknown for unregistered code, got %q", c.String())
	}
}
