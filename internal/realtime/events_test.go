package realtime

import (
	"errors"
	"testing"
)

func TestParseClientEvent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    EventType
		wantErr error
	}{
		{
			name: "authenticate",
			raw:  `{"type":"authenticate","data":{"token":"abc"}}`,
			want: EventAuthenticate,
		},
		{
			name:    "authenticate without token",
			raw:     `{"type":"authenticate","data":{}}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "authenticate with blank token",
			raw:     `{"type":"authenticate","data":{"token":"   "}}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name: "location update",
			raw:  `{"type":"location_update","data":{"latitude":52.5,"longitude":13.4,"accuracy_meters":5.5,"is_active":true}}`,
			want: EventLocationUpdate,
		},
		{
			name: "location update with no optional fields",
			raw:  `{"type":"location_update","data":{"latitude":0,"longitude":0}}`,
			want: EventLocationUpdate,
		},
		{
			name: "start tracking",
			raw:  `{"type":"start_tracking","data":{"user_id":"d1"}}`,
			want: EventStartTracking,
		},
		{
			name:    "start tracking without user_id",
			raw:     `{"type":"start_tracking","data":{}}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name: "stop tracking",
			raw:  `{"type":"stop_tracking","data":{"user_id":"d1"}}`,
			want: EventStopTracking,
		},
		{
			name: "watch delivery",
			raw:  `{"type":"watch_delivery","data":{"user_id":"d1"}}`,
			want: EventWatchDelivery,
		},
		{
			name:    "watch delivery without user_id",
			raw:     `{"type":"watch_delivery","data":{}}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name: "unwatch delivery",
			raw:  `{"type":"unwatch_delivery","data":{"user_id":"d1"}}`,
			want: EventUnwatchDelivery,
		},
		{
			name: "emergency request",
			raw:  `{"type":"emergency_request","data":{"location":{"latitude":41,"longitude":29},"message":"help","priority":"high"}}`,
			want: EventEmergencyRequest,
		},
		{
			name: "emergency request with empty data",
			raw:  `{"type":"emergency_request"}`,
			want: EventEmergencyRequest,
		},
		{
			name:    "missing type",
			raw:     `{"data":{"token":"abc"}}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "unknown type",
			raw:     `{"type":"teleport","data":{}}`,
			wantErr: ErrUnknownEvent,
		},
		{
			name:    "not json",
			raw:     `{oops`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "payload type mismatch",
			raw:     `{"type":"location_update","data":{"latitude":"north"}}`,
			wantErr: ErrMalformedEvent,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event, err := ParseClientEvent([]byte(tc.raw))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event.Type() != tc.want {
				t.Errorf("event type = %s, want %s", event.Type(), tc.want)
			}
		})
	}
}

func TestParseLocationUpdateFields(t *testing.T) {
	raw := `{"type":"location_update","data":{
		"latitude":52.52,"longitude":13.405,
		"accuracy_meters":4.2,"speed_kmh":23.5,"heading_degrees":180,
		"battery_level":67,"network_type":"cellular","device_info":"pixel 9","is_active":true}}`

	event, err := ParseClientEvent([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ev, ok := event.(LocationUpdateEvent)
	if !ok {
		t.Fatalf("event = %T", event)
	}
	if ev.Latitude != 52.52 || ev.Longitude != 13.405 {
		t.Errorf("coordinates = (%v, %v)", ev.Latitude, ev.Longitude)
	}
	if ev.AccuracyMeters == nil || *ev.AccuracyMeters != 4.2 {
		t.Errorf("accuracy = %v", ev.AccuracyMeters)
	}
	if ev.AltitudeMeters != nil {
		t.Errorf("absent altitude decoded as %v", *ev.AltitudeMeters)
	}
	if ev.BatteryLevel == nil || *ev.BatteryLevel != 67 {
		t.Errorf("battery = %v", ev.BatteryLevel)
	}
	if ev.NetworkType != "cellular" || ev.DeviceInfo != "pixel 9" || !ev.IsActive {
		t.Errorf("metadata = %q %q %v", ev.NetworkType, ev.DeviceInfo, ev.IsActive)
	}
}

func TestParseEmergencyDefaults(t *testing.T) {
	event, err := ParseClientEvent([]byte(`{"type":"emergency_request","data":{"location":{"latitude":1,"longitude":2}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ev := event.(EmergencyRequestEvent)
	if ev.UserID != "" || ev.Message != "" || ev.Priority != "" {
		t.Errorf("optional fields not empty: %+v", ev)
	}
	if ev.Location.Latitude != 1 || ev.Location.Longitude != 2 {
		t.Errorf("location = %+v", ev.Location)
	}
}
