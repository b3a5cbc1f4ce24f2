package geo

import (
	"errors"
	"strings"
)

// NetworkType indicates the connectivity a device reported with a fix.
type NetworkType string

const (
	NetworkTypeWifi     NetworkType = "wifi"
	NetworkTypeCellular NetworkType = "cellular"
	NetworkTypeOffline  NetworkType = "offline"
	NetworkTypeUnknown  NetworkType = "unknown"
)

var ErrInvalidNetworkType = errors.New("invalid network type")

// ParseNetworkType normalizes (lowercases+trims) and validates a network type string.
func ParseNetworkType(input string) (NetworkType, error) {
	networkType := NetworkType(strings.ToLower(strings.TrimSpace(input)))
	if networkType.Valid() {
		return networkType, nil
	}
	return "", ErrInvalidNetworkType
}

// NetworkTypeOrUnknown normalizes a reported value, falling back to unknown.
// Device reports are advisory; an unrecognized value never rejects a fix.
func NetworkTypeOrUnknown(input string) NetworkType {
	if networkType, err := ParseNetworkType(input); err == nil {
		return networkType
	}
	return NetworkTypeUnknown
}

// Valid reports whether networkType is one of the allowed constants.
func (networkType NetworkType) Valid() bool {
	switch networkType {
	case NetworkTypeWifi, NetworkTypeCellular, NetworkTypeOffline, NetworkTypeUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the NetworkType.
func (networkType NetworkType) String() string {
	return string(networkType)
}

func (networkType NetworkType) IsOffline() bool { return networkType == NetworkTypeOffline }
