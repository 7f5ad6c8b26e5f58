package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SocialProfile is the public profile attached to the logged-in account.
type SocialProfile struct {
	ID          int64  `json:"id"`
	ProfileID   int64  `json:"profileId"`
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
	UserName    string `json:"userName"`
	Location    string `json:"location,omitempty"`
}

// Device is a registered Garmin device.
type Device struct {
	DeviceID           int64  `json:"deviceId"`
	SerialNumber       int64  `json:"serialNumber"`
	ProductDisplayName string `json:"productDisplayName"`
	FirmwareVersion    string `json:"currentFirmwareVersion"`
	LastSyncTime       string `json:"lastUploadedDataTime,omitempty"`
}

// Activity is one entry from the activity list. Dives carry a max depth;
// other activity types leave it zero.
type Activity struct {
	ActivityID     int64   `json:"activityId"`
	ActivityName   string  `json:"activityName"`
	StartTimeLocal string  `json:"startTimeLocal"`
	Duration       float64 `json:"duration"`
	DistanceMeters float64 `json:"distance"`
	MaxDepthMeters float64 `json:"maxDepth"`
	ActivityType   struct {
		TypeKey string `json:"typeKey"`
	} `json:"activityType"`
}

// GetSocialProfile fetches the account's social profile.
func (a *API) GetSocialProfile(ctx context.Context) (*SocialProfile, error) {
	var profile SocialProfile
	if err := a.getJSON(ctx, "/userprofile-service/socialProfile", &profile); err != nil {
		return nil, fmt.Errorf("failed to fetch social profile: %w", err)
	}
	return &profile, nil
}

// GetDevices lists the devices registered to the account.
func (a *API) GetDevices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := a.getJSON(ctx, "/device-service/deviceregistration/devices", &devices); err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	return devices, nil
}

// ListActivities fetches one page of the activity list. activityType filters
// by type key ("diving" for dives); empty means all types.
func (a *API) ListActivities(ctx context.Context, start, limit int, activityType string) ([]Activity, error) {
	query := url.Values{
		"start": {strconv.Itoa(start)},
		"limit": {strconv.Itoa(limit)},
	}
	if activityType != "" {
		query.Set("activityType", activityType)
	}

	var activities []Activity
	path := "/activitylist-service/activities/search/activities?" + query.Encode()
	if err := a.getJSON(ctx, path, &activities); err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	return activities, nil
}
