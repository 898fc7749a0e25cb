package gpsd_test

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"intercept/internal/gpsd"
	"intercept/internal/logging"
)

// fakeGPSD accepts one connection, waits for the WATCH command, and replies
// with the given report lines.
func fakeGPSD(t *testing.T, lines []string) (string, int) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		reader := bufio.NewReader(conn)
		if _, err := reader.ReadString('\n'); err != nil {
			return
		}
		for _, line := range lines {
			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				return
			}
		}
		// Hold the connection open until the client disconnects.
		_, _ = reader.ReadString('\n')
	}()

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func waitForFix(t *testing.T, client *gpsd.Client) *gpsd.Position {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if pos := client.Position(); pos != nil {
			return pos
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no fix received before deadline")
	return nil
}

func TestClientTracksTPVFix(t *testing.T) {
	host, port := fakeGPSD(t, []string{
		`{"class":"DEVICES","devices":[{"path":"/dev/ttyACM0"}]}`,
		`{"class":"TPV","mode":3,"lat":51.477,"lon":-0.001,"alt":46.2,"speed":0.5,"track":180.0,"time":"2026-08-26T12:00:00.000Z"}`,
	})

	client := gpsd.NewClient(host, port, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	client.Start(ctx)
	t.Cleanup(client.Stop)

	pos := waitForFix(t, client)
	if pos.Latitude != 51.477 || pos.Longitude != -0.001 {
		t.Fatalf("position = %v/%v", pos.Latitude, pos.Longitude)
	}
	if pos.FixQuality != 3 {
		t.Fatalf("fix quality = %d, want 3", pos.FixQuality)
	}
	if pos.Altitude == nil || *pos.Altitude != 46.2 {
		t.Fatalf("altitude = %v", pos.Altitude)
	}
	if pos.Device != "/dev/ttyACM0" {
		t.Fatalf("device = %q", pos.Device)
	}
	if pos.Timestamp == nil {
		t.Fatal("timestamp not parsed")
	}
	if client.LastUpdate().IsZero() {
		t.Fatal("last update not recorded")
	}
}

func TestClientIgnoresReportsWithoutFix(t *testing.T) {
	host, port := fakeGPSD(t, []string{
		`{"class":"TPV","mode":1}`,
		`{"class":"TPV","mode":3,"lon":-0.001}`,
		`not json at all`,
	})

	client := gpsd.NewClient(host, port, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	client.Start(ctx)
	t.Cleanup(client.Stop)

	time.Sleep(200 * time.Millisecond)
	if pos := client.Position(); pos != nil {
		t.Fatalf("fixless reports produced a position: %+v", pos)
	}
}

func TestClientOnUpdateCallback(t *testing.T) {
	host, port := fakeGPSD(t, []string{
		`{"class":"TPV","mode":2,"lat":40.0,"lon":-74.0}`,
	})

	client := gpsd.NewClient(host, port, logging.NewNop())
	updates := make(chan gpsd.Position, 1)
	client.OnUpdate(func(p gpsd.Position) {
		select {
		case updates <- p:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	client.Start(ctx)
	t.Cleanup(client.Stop)

	select {
	case fix := <-updates:
		if fix.Latitude != 40.0 {
			t.Fatalf("callback latitude = %v", fix.Latitude)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback never invoked")
	}
}

func TestClientRecordsDialError(t *testing.T) {
	client := gpsd.NewClient("127.0.0.1", 1, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	client.Start(ctx)
	t.Cleanup(client.Stop)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := client.Err(); err != nil {
			if !strings.Contains(err.Error(), "dial gpsd") {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("dial failure never surfaced through Err")
}
