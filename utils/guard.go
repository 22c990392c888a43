package utils

// Guard runs a cleanup function when a constructor returns early with an error, and skips it
// once the constructor declares success:
//
//	guard := NewGuard(func() { f.Close() })
//	defer guard.OnFail()
//	if err != nil {
//		return nil, err
//	}
//	guard.Success()
//	return f, nil
type Guard struct {
	OnFail  func()
	success bool
}

// NewGuard returns a Guard that calls onFailCleanup from OnFail unless Success was called.
func NewGuard(onFailCleanup func()) *Guard {
	ret := &Guard{}
	ret.OnFail = func() {
		if !ret.success {
			onFailCleanup()
		}
	}
	return ret
}

// Success marks the guarded operation as succeeded.
func (guard *Guard) Success() {
	guard.success = true
}
