package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func main() {
	url := flag.String("url", "ws://localhost:8080/ws/tracking", "Tracking WebSocket endpoint")
	token := flag.String("token", "", "Access token for the simulated courier (required)")
	userID := flag.String("user-id", "", "User id of the simulated courier, must match the token subject (required)")
	interval := flag.Duration("interval", 3*time.Second, "Interval between location fixes")
	lat := flag.Float64("lat", 52.5200, "Starting latitude")
	lng := flag.Float64("lng", 13.4050, "Starting longitude")
	stepMeters := flag.Float64("step", 25, "Maximum random walk step per fix, in meters")
	battery := flag.Int("battery", 100, "Starting battery level")
	emergencyAfter := flag.Int("emergency-after", 0, "Send one emergency request after N fixes (0 = never)")

	flag.Parse()

	if *token == "" || *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: courier-sim --token='<jwt>' --user-id=d1 [--url=ws://localhost:8080/ws/tracking]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *url, nil)
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *url, err)
	}
	defer conn.Close()
	log.Printf("connected to %s", *url)

	// reader keeps the socket serviced (pings, acks) and logs what the hub says
	go func() {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read loop ended: %v", err)
				stop()
				return
			}
			var frame struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(payload, &frame); err != nil {
				log.Printf("unreadable frame: %v", err)
				continue
			}
			switch frame.Type {
			case "error", "auth_error":
				log.Printf("server %s: %s", frame.Type, frame.Message)
			default:
				log.Printf("<- %s", frame.Type)
			}
		}
	}()

	send := func(eventType string, data any) error {
		payload, err := json.Marshal(envelope{Type: eventType, Data: data})
		if err != nil {
			return err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		return conn.WriteMessage(websocket.TextMessage, payload)
	}

	if err := send("authenticate", map[string]string{"token": *token}); err != nil {
		log.Fatalf("failed to send authenticate: %v", err)
	}
	if err := send("start_tracking", map[string]string{"user_id": *userID}); err != nil {
		log.Fatalf("failed to send start_tracking: %v", err)
	}

	curLat, curLng := *lat, *lng
	level := *battery
	fixes := 0

	publish := func() {
		curLat, curLng = step(curLat, curLng, *stepMeters)
		if fixes > 0 && fixes%20 == 0 && level > 1 {
			level--
		}
		fix := map[string]any{
			"latitude":        curLat,
			"longitude":       curLng,
			"accuracy_meters": 3 + rand.Float64()*10,
			"speed_kmh":       10 + rand.Float64()*30,
			"heading_degrees": rand.Float64() * 360,
			"battery_level":   level,
			"network_type":    "cellular",
			"device_info":     "courier-sim",
			"is_active":       true,
		}
		if err := send("location_update", fix); err != nil {
			log.Printf("publish error: %v", err)
			return
		}
		fixes++
		log.Printf("-> location_update lat=%.5f lng=%.5f battery=%d", curLat, curLng, level)

		if *emergencyAfter > 0 && fixes == *emergencyAfter {
			alert := map[string]any{
				"location": map[string]float64{"latitude": curLat, "longitude": curLng},
				"message":  "simulated emergency",
				"priority": "HIGH",
			}
			if err := send("emergency_request", alert); err != nil {
				log.Printf("emergency error: %v", err)
				return
			}
			log.Print("-> emergency_request")
		}
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	publish()

	for {
		select {
		case <-ctx.Done():
			log.Print("received shutdown signal, disconnecting")
			_ = send("stop_tracking", map[string]string{"user_id": *userID})
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
				time.Now().Add(time.Second))
			time.Sleep(250 * time.Millisecond)
			return
		case <-ticker.C:
			publish()
		}
	}
}

// step moves the fix by at most maxMeters in a random direction.
func step(lat, lng, maxMeters float64) (float64, float64) {
	const degPerMeter = 1.0 / 111_000
	dLat := (rand.Float64()*2 - 1) * maxMeters * degPerMeter
	dLng := (rand.Float64()*2 - 1) * maxMeters * degPerMeter
	return lat + dLat, lng + dLng
}
