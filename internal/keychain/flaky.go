package keychain

// FlakyStore wraps a Store and fails selected operations with a fixed
// error. It exists so higher layers can test their failure-ordering
// guarantees (e.g. a failed Put must leave the account index untouched).
type FlakyStore struct {
	Inner     Store
	PutErr    error
	GetErr    error
	ListErr   error
	DeleteErr error
}

func (s *FlakyStore) Put(accountKey string, blob []byte) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	return s.Inner.Put(accountKey, blob)
}

func (s *FlakyStore) Get(accountKey string) ([]byte, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	return s.Inner.Get(accountKey)
}

func (s *FlakyStore) List() ([]string, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.Inner.List()
}

func (s *FlakyStore) Delete(accountKey string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	return s.Inner.Delete(accountKey)
}
