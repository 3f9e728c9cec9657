package dmsync

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/harixx/slack-dm-tracker-web-app/internal/models"
	"github.com/harixx/slack-dm-tracker-web-app/internal/slackclient"
	"github.com/harixx/slack-dm-tracker-web-app/internal/store"
)

// fakeSlack serves canned conversations; channels listed in failHistory
// error on their history fetch.
type fakeSlack struct {
	channels    []slackclient.IMChannel
	history     map[string][]models.RawMessage
	users       map[string]*slackclient.UserInfo
	failHistory map[string]bool
	listErr     error
}

func (f *fakeSlack) ListIMChannels(ctx context.Context, token string) ([]slackclient.IMChannel, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.channels, nil
}

func (f *fakeSlack) ChannelHistory(ctx context.Context, token, channelID string, oldest time.Time) ([]models.RawMessage, error) {
	if f.failHistory[channelID] {
		return nil, errors.New("upstream error")
	}
	return f.history[channelID], nil
}

func (f *fakeSlack) UserInfo(ctx context.Context, token, userID string) (*slackclient.UserInfo, error) {
	info, ok := f.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	return info, nil
}

func (f *fakeSlack) PostMessage(ctx context.Context, token, channelID, text string) error {
	return nil
}

func (f *fakeSlack) ExchangeCode(ctx context.Context, code string) (*slackclient.OAuthGrant, error) {
	return nil, errors.New("not implemented")
}

func testSession() *models.Session {
	return &models.Session{
		UserID:      me,
		TeamID:      "T001",
		TeamDomain:  "acme",
		AccessToken: "xoxp-test",
	}
}

func newTestSyncer(api slackclient.API, st store.DataStore) *Syncer {
	now := func() time.Time { return time.Unix(1000, 0).UTC() }
	return NewSyncer(api, st, zerolog.Nop(), now)
}

func TestSyncBuildsRecords(t *testing.T) {
	api := &fakeSlack{
		channels: []slackclient.IMChannel{{ID: "D001", UserID: other}},
		history: map[string][]models.RawMessage{
			"D001": {
				msg(me, "100.000000", "hello"),
				msg(other, "150.000000", "hi back"),
			},
		},
		users: map[string]*slackclient.UserInfo{
			other: {ID: other, Name: "bob", RealName: "Bob Jones", Avatar: "https://example.com/a.png"},
		},
	}
	st := store.NewMemoryStore()
	syncer := newTestSyncer(api, st)

	records, skipped, err := syncer.Sync(context.Background(), testSession())
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 0 {
		t.Fatalf("expected 0 skipped, got %d", skipped)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.ID != "D001_100.000000" {
		t.Fatalf("id: got %s", rec.ID)
	}
	if rec.RecipientName != "Bob Jones" {
		t.Fatalf("recipient name: got %s", rec.RecipientName)
	}
	if !rec.HasReply || rec.ReplyAt == nil {
		t.Fatal("expected resolved reply")
	}
	if !rec.ReplyAt.Equal(time.Unix(150, 0).UTC()) {
		t.Fatalf("reply at: got %v", rec.ReplyAt)
	}
	if rec.Permalink != "https://acme.slack.com/archives/D001/p100000000" {
		t.Fatalf("permalink: got %s", rec.Permalink)
	}
	if rec.DateKey != "1970-01-01" {
		t.Fatalf("date key: got %s", rec.DateKey)
	}

	stored, err := st.GetRecords(context.Background(), me)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(stored, records) {
		t.Fatal("stored set differs from returned set")
	}
}

func TestSyncSkipsFailedConversation(t *testing.T) {
	api := &fakeSlack{
		channels: []slackclient.IMChannel{
			{ID: "D001", UserID: "U010"},
			{ID: "D002", UserID: "U020"},
			{ID: "D003", UserID: "U030"},
		},
		history: map[string][]models.RawMessage{
			"D001": {msg(me, "100.000000", "one")},
			"D003": {msg(me, "300.000000", "three")},
		},
		users: map[string]*slackclient.UserInfo{
			"U010": {ID: "U010", Name: "a"},
			"U020": {ID: "U020", Name: "b"},
			"U030": {ID: "U030", Name: "c"},
		},
		failHistory: map[string]bool{"D002": true},
	}
	st := store.NewMemoryStore()
	syncer := newTestSyncer(api, st)

	records, skipped, err := syncer.Sync(context.Background(), testSession())
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped conversation, got %d", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("siblings must survive a failed conversation, got %d records", len(records))
	}
}

func TestSyncSkipsConversationWhenProfileFails(t *testing.T) {
	api := &fakeSlack{
		channels: []slackclient.IMChannel{
			{ID: "D001", UserID: "U010"},
			{ID: "D002", UserID: "U020"},
		},
		history: map[string][]models.RawMessage{
			"D001": {msg(me, "100.000000", "one")},
			"D002": {msg(me, "200.000000", "two")},
		},
		// U020 has no profile, so D002's counterpart lookup fails.
		users: map[string]*slackclient.UserInfo{
			"U010": {ID: "U010", Name: "a"},
		},
	}
	st := store.NewMemoryStore()
	syncer := newTestSyncer(api, st)

	records, skipped, err := syncer.Sync(context.Background(), testSession())
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped conversation, got %d", skipped)
	}
	if len(records) != 1 || records[0].Text != "one" {
		t.Fatalf("sibling must survive a profile failure, got %+v", records)
	}
}

func TestSyncAbortsWhenListingFails(t *testing.T) {
	api := &fakeSlack{listErr: errors.New("rate limited")}
	st := store.NewMemoryStore()
	syncer := newTestSyncer(api, st)

	if _, _, err := syncer.Sync(context.Background(), testSession()); err == nil {
		t.Fatal("expected error when conversation listing fails")
	}
}

func TestSyncOrdersNewestFirst(t *testing.T) {
	api := &fakeSlack{
		channels: []slackclient.IMChannel{
			{ID: "D001", UserID: "U010"},
			{ID: "D002", UserID: "U020"},
		},
		history: map[string][]models.RawMessage{
			"D001": {msg(me, "100.000000", "old"), msg(me, "400.000000", "newest")},
			"D002": {msg(me, "200.000000", "middle")},
		},
		users: map[string]*slackclient.UserInfo{
			"U010": {ID: "U010", Name: "a"},
			"U020": {ID: "U020", Name: "b"},
		},
	}
	st := store.NewMemoryStore()
	syncer := newTestSyncer(api, st)

	records, _, err := syncer.Sync(context.Background(), testSession())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(records); i++ {
		if records[i].SentAt.After(records[i-1].SentAt) {
			t.Fatalf("records not sorted newest first at index %d", i)
		}
	}
	if records[0].Text != "newest" {
		t.Fatalf("expected newest record first, got %q", records[0].Text)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	api := &fakeSlack{
		channels: []slackclient.IMChannel{{ID: "D001", UserID: other}},
		history: map[string][]models.RawMessage{
			"D001": {
				msg(me, "100.000000", "hello"),
				msg(other, "150.000000", "hi"),
				msg(me, "200.000000", "and another"),
			},
		},
		users: map[string]*slackclient.UserInfo{
			other: {ID: other, Name: "bob"},
		},
	}
	st := store.NewMemoryStore()
	syncer := newTestSyncer(api, st)

	first, _, err := syncer.Sync(context.Background(), testSession())
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := syncer.Sync(context.Background(), testSession())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two syncs over an unchanged upstream must produce identical record sets")
	}
}
