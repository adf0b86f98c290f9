package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itweera/lyricstage/internal/core"
	"github.com/itweera/lyricstage/internal/domain"
)

type sent struct {
	to core.ConnID
	ev Event
}

type recordingSink struct {
	sends []sent
}

func (s *recordingSink) Send(to core.ConnID, ev Event) {
	s.sends = append(s.sends, sent{to: to, ev: ev})
}

func (s *recordingSink) reset() { s.sends = nil }

func (s *recordingSink) to(id core.ConnID) []Event {
	var out []Event
	for _, m := range s.sends {
		if m.to == id {
			out = append(out, m.ev)
		}
	}
	return out
}

func fileSyncsTo(sink *recordingSink, id core.ConnID) []FileSyncEvent {
	var out []FileSyncEvent
	for _, ev := range sink.to(id) {
		if fs, ok := ev.(FileSyncEvent); ok {
			out = append(out, fs)
		}
	}
	return out
}

func newTestBroadcaster() (*Broadcaster, *recordingSink) {
	sink := &recordingSink{}
	return NewBroadcaster(core.NewRegistry(), core.NewSessionState(), sink, nil), sink
}

func join(b *Broadcaster, id core.ConnID, role domain.Role, session, name string) {
	b.Connect(id)
	b.Handle(id, JoinAction{Role: role, SessionID: session, User: domain.Identity{Username: name}})
}

func testDoc(name string) domain.Document {
	return domain.Document{
		FileName:       name,
		StoredFileName: "file-1-" + name,
		MimeType:       "application/pdf",
		ExtractedText:  "la la la",
	}
}

func TestPresenceFollowsRegistry(t *testing.T) {
	b, sink := newTestBroadcaster()

	join(b, "m", domain.RoleMaster, "s1", "leader")
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	join(b, "v2", domain.RoleViewer, "s1", "bob")
	b.Disconnect("v1")

	// Every published count must equal the registry size at the moment of
	// the mutation that triggered it.
	var counts []int
	for _, m := range sink.sends {
		if dc, ok := m.ev.(DeviceCountEvent); ok && m.to == "m" {
			counts = append(counts, dc.DeviceCount)
		}
	}
	assert.Equal(t, []int{1, 2, 3, 2}, counts)

	devices, _ := b.Status()
	assert.Equal(t, 2, devices)
}

func TestMasterBroadcastReachesViewer(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	sink.reset()

	doc := testDoc("lyrics.pdf")
	b.Handle("m", BroadcastDocumentAction{Doc: doc})

	syncs := fileSyncsTo(sink, "v1")
	require.Len(t, syncs, 1)
	assert.Equal(t, doc, syncs[0].Document)

	// The sender knows its own result; no fileSync echoes back.
	assert.Empty(t, fileSyncsTo(sink, "m"))

	// The activity notice goes to everyone, sender included.
	for _, id := range []core.ConnID{"m", "v1"} {
		var notices int
		for _, ev := range sink.to(id) {
			if up, ok := ev.(FileUploadedEvent); ok {
				notices++
				assert.Equal(t, "lyrics.pdf", up.FileName)
				assert.False(t, up.Timestamp.IsZero())
			}
		}
		assert.Equal(t, 1, notices, "fileUploaded to %s", id)
	}

	devices, snap := b.Status()
	assert.Equal(t, 2, devices)
	assert.Equal(t, doc, snap.CurrentDocument)
}

func TestLateJoinerGetsReplay(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	doc := testDoc("lyrics.pdf")
	b.Handle("m", BroadcastDocumentAction{Doc: doc})
	sink.reset()

	join(b, "v2", domain.RoleViewer, "s1", "bob")

	syncs := fileSyncsTo(sink, "v2")
	require.Len(t, syncs, 1)
	assert.Equal(t, doc, syncs[0].Document)

	// Replay is addressed to the joiner only.
	assert.Empty(t, fileSyncsTo(sink, "m"))
}

func TestLateJoinerNoReplayWithoutDocument(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	assert.Empty(t, fileSyncsTo(sink, "v1"))
}

func TestMasterJoinGetsNoReplay(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m1", domain.RoleMaster, "s1", "leader")
	b.Handle("m1", BroadcastDocumentAction{Doc: testDoc("lyrics.pdf")})
	sink.reset()

	join(b, "m2", domain.RoleMaster, "s1", "deputy")
	assert.Empty(t, fileSyncsTo(sink, "m2"))
}

func TestAbruptDisconnectAnnounced(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	sink.reset()

	b.Disconnect("m")

	var left []UserLeftEvent
	for _, ev := range sink.to("v1") {
		if ul, ok := ev.(UserLeftEvent); ok {
			left = append(left, ul)
		}
	}
	require.Len(t, left, 1)
	assert.Equal(t, domain.RoleMaster, left[0].Role)
	assert.Equal(t, "leader", left[0].User.Username)
	assert.Equal(t, 1, left[0].DeviceCount)

	devices, _ := b.Status()
	assert.Equal(t, 1, devices)
}

func TestViewerCannotToggleFullscreen(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	sink.reset()

	b.Handle("v1", ToggleFullscreenAction{Active: true})

	for _, m := range sink.sends {
		_, isToggle := m.ev.(FullscreenToggleEvent)
		assert.False(t, isToggle, "no relay expected")
	}
	_, snap := b.Status()
	assert.False(t, snap.FullscreenActive)
}

func TestViewerBroadcastIgnored(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	sink.reset()

	b.Handle("v1", BroadcastDocumentAction{Doc: testDoc("rogue.pdf")})

	// Best-effort: no fileSync, no fileUploaded, no error event either.
	assert.Empty(t, sink.sends)
	_, snap := b.Status()
	assert.True(t, snap.CurrentDocument.Empty())
}

func TestActionsObservedInSenderOrder(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	b.Connect("v1")
	sink.reset()

	b.Handle("v1", JoinAction{Role: domain.RoleViewer, SessionID: "s1", User: domain.Identity{Username: "alice"}})
	b.Handle("m", BroadcastDocumentAction{Doc: testDoc("lyrics.pdf")})
	b.Handle("m", ToggleFullscreenAction{Active: true})

	var order []string
	for _, ev := range sink.to("v1") {
		switch ev.(type) {
		case FileSyncEvent:
			order = append(order, "fileSync")
		case FullscreenToggleEvent:
			order = append(order, "fullscreenToggle")
		}
	}
	assert.Equal(t, []string{"fileSync", "fullscreenToggle"}, order)
}

func TestFullscreenRelayNotDeduplicated(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	sink.reset()

	b.Handle("m", ToggleFullscreenAction{Active: true})
	b.Handle("m", ToggleFullscreenAction{Active: true})

	var relays []FullscreenToggleEvent
	for _, ev := range sink.to("v1") {
		if ft, ok := ev.(FullscreenToggleEvent); ok {
			relays = append(relays, ft)
		}
	}
	require.Len(t, relays, 2)
	assert.True(t, relays[0].IsFullscreen)
	assert.True(t, relays[1].IsFullscreen)

	_, snap := b.Status()
	assert.True(t, snap.FullscreenActive)
}

func TestTeardownRunsOnce(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	sink.reset()

	// Explicit leave followed by the transport noticing the drop.
	b.Handle("v1", LeaveAction{})
	b.Disconnect("v1")

	var left, counts int
	for _, ev := range sink.to("m") {
		switch ev.(type) {
		case UserLeftEvent:
			left++
		case DeviceCountEvent:
			counts++
		}
	}
	assert.Equal(t, 1, left)
	assert.Equal(t, 1, counts)
}

func TestDuplicateRegisterIsNoOp(t *testing.T) {
	b, sink := newTestBroadcaster()
	b.Connect("c1")
	b.Handle("c1", JoinAction{Role: domain.RoleViewer, SessionID: "s1", User: domain.Identity{Username: "alice"}})
	sink.reset()

	b.Connect("c1")

	assert.Empty(t, sink.sends)
	devices, _ := b.Status()
	assert.Equal(t, 1, devices)
}

func TestRejoinOverwritesRole(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "c1", domain.RoleViewer, "s1", "alice")
	join(b, "v2", domain.RoleViewer, "s1", "bob")
	sink.reset()

	// Role change mid-session is a re-join; last call wins.
	b.Handle("c1", JoinAction{Role: domain.RoleMaster, SessionID: "s1", User: domain.Identity{Username: "alice"}})
	b.Handle("c1", BroadcastDocumentAction{Doc: testDoc("lyrics.pdf")})

	require.Len(t, fileSyncsTo(sink, "v2"), 1)
}

func TestJoinWithoutRegisterDropped(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	sink.reset()

	b.Handle("ghost", JoinAction{Role: domain.RoleViewer, SessionID: "s1", User: domain.Identity{Username: "casper"}})

	assert.Empty(t, sink.sends)
	devices, _ := b.Status()
	assert.Equal(t, 1, devices)
}

func TestUnjoinedDisconnectStaysSilent(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	b.Connect("c2")
	sink.reset()

	b.Disconnect("c2")

	for _, ev := range sink.to("v1") {
		_, isLeft := ev.(UserLeftEvent)
		assert.False(t, isLeft, "unjoined connections never appeared to anyone")
	}
	devices, _ := b.Status()
	assert.Equal(t, 1, devices)
}

func TestPublishDocumentReachesEveryone(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	sink.reset()

	doc := testDoc("setlist.pdf")
	b.PublishDocument(doc)

	// System-origin upload has no sender to exclude.
	require.Len(t, fileSyncsTo(sink, "m"), 1)
	require.Len(t, fileSyncsTo(sink, "v1"), 1)
}

func TestLastMasterWins(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m1", domain.RoleMaster, "s1", "leader")
	join(b, "m2", domain.RoleMaster, "s1", "deputy")

	b.Handle("m1", BroadcastDocumentAction{Doc: testDoc("first.pdf")})
	b.Handle("m2", BroadcastDocumentAction{Doc: testDoc("second.pdf")})

	_, snap := b.Status()
	assert.Equal(t, "second.pdf", snap.CurrentDocument.FileName)

	sink.reset()
	join(b, "v1", domain.RoleViewer, "s1", "alice")
	syncs := fileSyncsTo(sink, "v1")
	require.Len(t, syncs, 1)
	assert.Equal(t, "second.pdf", syncs[0].FileName)
}

func TestUserJoinedAnnouncement(t *testing.T) {
	b, sink := newTestBroadcaster()
	join(b, "m", domain.RoleMaster, "s1", "leader")
	sink.reset()

	join(b, "v1", domain.RoleViewer, "s1", "alice")

	var joined []UserJoinedEvent
	for _, ev := range sink.to("m") {
		if uj, ok := ev.(UserJoinedEvent); ok {
			joined = append(joined, uj)
		}
	}
	require.Len(t, joined, 1)
	assert.Equal(t, domain.RoleViewer, joined[0].Role)
	assert.Equal(t, "s1", joined[0].SessionID)
	assert.Equal(t, "alice", joined[0].User.Username)
	assert.Equal(t, 2, joined[0].DeviceCount)

	// The joiner does not get its own announcement.
	for _, ev := range sink.to("v1") {
		_, isJoined := ev.(UserJoinedEvent)
		assert.False(t, isJoined)
	}
}
