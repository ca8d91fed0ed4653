package quota

import "testing"

func TestRecordAndCheckDeniesAfterDailyLimit(t *testing.T) {
	t.Parallel()

	c := NewCounter()
	key := Key{CommunityID: 1, ChannelID: 2, UserID: 3, Date: "2024-03-01"}

	want := []Decision{Allow, Allow, Allow, Deny, Deny}
	for i, expected := range want {
		if got := c.RecordAndCheck(key); got != expected {
			t.Fatalf("call %d: got %v want %v", i+1, got, expected)
		}
	}
	if got := c.Count(key); got != DailyLimit {
		t.Fatalf("count grew past the limit: %d", got)
	}
}

func TestRecordAndCheckKeysAreIndependent(t *testing.T) {
	t.Parallel()

	base := Key{CommunityID: 1, ChannelID: 2, UserID: 3, Date: "2024-03-01"}
	tests := []struct {
		name string
		key  Key
	}{
		{name: "next day", key: Key{CommunityID: 1, ChannelID: 2, UserID: 3, Date: "2024-03-02"}},
		{name: "other user", key: Key{CommunityID: 1, ChannelID: 2, UserID: 4, Date: "2024-03-01"}},
		{name: "other channel", key: Key{CommunityID: 1, ChannelID: 5, UserID: 3, Date: "2024-03-01"}},
		{name: "other community", key: Key{CommunityID: 6, ChannelID: 2, UserID: 3, Date: "2024-03-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewCounter()
			for i := 0; i < DailyLimit+2; i++ {
				c.RecordAndCheck(base)
			}
			if got := c.RecordAndCheck(tt.key); got != Allow {
				t.Fatalf("expected fresh bucket to allow, got %v", got)
			}
			if got := c.Count(tt.key); got != 1 {
				t.Fatalf("expected count 1, got %d", got)
			}
		})
	}
}

func TestCompactKeepsOnlyToday(t *testing.T) {
	t.Parallel()

	c := NewCounter()
	c.RecordAndCheck(Key{UserID: 1, Date: "2024-03-01"})
	c.RecordAndCheck(Key{UserID: 2, Date: "2024-03-01"})
	today := Key{UserID: 1, Date: "2024-03-02"}
	c.RecordAndCheck(today)
	c.RecordAndCheck(today)

	if removed := c.Compact("2024-03-02"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if c.Len() != 1 || c.Count(today) != 2 {
		t.Fatalf("compaction touched today's bucket: len=%d count=%d", c.Len(), c.Count(today))
	}
}
