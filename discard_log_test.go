package word2vec

import "testing"

func TestOrDiscard(t *testing.T) {
	if _, ok := orDiscard(nil).(DiscardLogger); !ok {
		t.Error("orDiscard(nil) should return DiscardLogger")
	}

	logger := &mockLogger{}
	if orDiscard(logger) != Logger(logger) {
		t.Error("orDiscard should keep a non-nil logger")
	}

	// a discarded message must not panic
	orDiscard(nil).Infof("value: %d", 1)
}
