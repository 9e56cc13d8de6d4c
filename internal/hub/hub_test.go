package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "ambulance-tracker/internal/domain/tracking"
	"ambulance-tracker/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("development"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type hubFixture struct {
	hub     *Hub
	server  *httptest.Server
	cancel  context.CancelFunc
	reports chan struct {
		clientID string
		report   ReportPayload
	}
	disconnects chan string
}

func newHubFixture(t *testing.T, snapshot func() []domain.DeviceRecord) *hubFixture {
	t.Helper()

	f := &hubFixture{
		hub: New(),
		reports: make(chan struct {
			clientID string
			report   ReportPayload
		}, 16),
		disconnects: make(chan string, 16),
	}

	f.hub.SetHandlers(Handlers{
		Snapshot: snapshot,
		OnLocationReport: func(clientID string, report ReportPayload) {
			f.reports <- struct {
				clientID string
				report   ReportPayload
			}{clientID, report}
		},
		OnDisconnect: func(clientID string) {
			f.disconnects <- clientID
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go f.hub.Run(ctx)

	f.server = httptest.NewServer(http.HandlerFunc(f.hub.ServeWS))
	t.Cleanup(func() {
		f.server.Close()
		cancel()
	})

	return f
}

func (f *hubFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestConnectionEstablishedRevealsClientID(t *testing.T) {
	f := newHubFixture(t, func() []domain.DeviceRecord { return nil })
	conn := f.dial(t)

	env := readEnvelope(t, conn)
	assert.Equal(t, EventConnectionEstablished, env.Type)
	assert.NotEmpty(t, env.ClientID)
}

func TestLateJoinerReceivesSnapshotReplay(t *testing.T) {
	records := []domain.DeviceRecord{
		{ID: "client-1", Latitude: 12.84, Longitude: 80.15, BatteryLevel: "Unknown", DeviceType: domain.DeviceTypeBrowser},
		{ID: "esp32-a1", Latitude: 12.85, Longitude: 80.16, BatteryLevel: "63", DeviceType: domain.DeviceTypeESP32},
	}
	f := newHubFixture(t, func() []domain.DeviceRecord { return records })
	conn := f.dial(t)

	env := readEnvelope(t, conn)
	require.Equal(t, EventConnectionEstablished, env.Type)

	// Exactly one location-update per registered device, matching the
	// snapshot at connection time.
	seen := map[string]bool{}
	for range records {
		env = readEnvelope(t, conn)
		require.Equal(t, EventLocationUpdate, env.Type)
		require.NotNil(t, env.Device)
		seen[env.Device.ID] = true
	}
	assert.Equal(t, map[string]bool{"client-1": true, "esp32-a1": true}, seen)
}

func TestLocationReportReachesHandlerAndEchoesBack(t *testing.T) {
	f := newHubFixture(t, func() []domain.DeviceRecord { return nil })
	conn := f.dial(t)

	welcome := readEnvelope(t, conn)
	require.Equal(t, EventConnectionEstablished, welcome.Type)

	report := ReportPayload{Latitude: 12.84, Longitude: 80.15, BatteryLevel: "91", SpeedKmh: 30}
	require.NoError(t, conn.WriteJSON(Envelope{Type: EventLocationReport, Report: &report}))

	select {
	case got := <-f.reports:
		assert.Equal(t, welcome.ClientID, got.clientID)
		assert.Equal(t, report, got.report)
	case <-time.After(5 * time.Second):
		t.Fatal("location report never reached the handler")
	}

	// The reporter receives its own echo and reconciles by id.
	record := domain.DeviceRecord{ID: welcome.ClientID, Latitude: 12.84, Longitude: 80.15}
	f.hub.BroadcastLocationUpdate(record)

	env := readEnvelope(t, conn)
	assert.Equal(t, EventLocationUpdate, env.Type)
	assert.Equal(t, welcome.ClientID, env.DeviceID)
}

func TestBroadcastReachesAllClients(t *testing.T) {
	f := newHubFixture(t, func() []domain.DeviceRecord { return nil })

	connA := f.dial(t)
	connB := f.dial(t)
	idA := readEnvelope(t, connA).ClientID
	readEnvelope(t, connB)

	f.hub.BroadcastNotification("esp32-a1", domain.Notification{
		ID:      "1",
		Message: "Low battery",
		Type:    "info",
	})

	for _, conn := range []*websocket.Conn{connA, connB} {
		env := readEnvelope(t, conn)
		assert.Equal(t, EventNotificationCreated, env.Type)
		assert.Equal(t, "esp32-a1", env.DeviceID)
		require.NotNil(t, env.Notification)
		assert.Equal(t, "Low battery", env.Notification.Message)
	}

	require.NotEmpty(t, idA)
}

func TestDisconnectTriggersCallbackWithoutAffectingOthers(t *testing.T) {
	f := newHubFixture(t, func() []domain.DeviceRecord { return nil })

	connA := f.dial(t)
	connB := f.dial(t)
	idA := readEnvelope(t, connA).ClientID
	readEnvelope(t, connB)

	require.NoError(t, connA.Close())

	select {
	case gone := <-f.disconnects:
		assert.Equal(t, idA, gone)
	case <-time.After(5 * time.Second):
		t.Fatal("disconnect callback never fired")
	}

	// The surviving client still receives broadcasts.
	f.hub.BroadcastDeviceRemoved(idA)
	env := readEnvelope(t, connB)
	assert.Equal(t, EventDeviceRemoved, env.Type)
	assert.Equal(t, idA, env.DeviceID)
}
