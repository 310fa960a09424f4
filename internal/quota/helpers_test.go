package quota

import "fmt"

func ptr(f float64) *float64 {
	return &f
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtPtr(f *float64) string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", *f)
}

type fakeCredential struct {
	lastError *LastError
	quota     *QuotaStatus
}

func (f fakeCredential) LastErrorState() *LastError { return f.lastError }
func (f fakeCredential) QuotaState() *QuotaStatus   { return f.quota }
