package webhook

import (
	"encoding/json"
	"fmt"
	"strings"

	"embyscan/internal/notify"
)

// payload mirrors the fields of an Emby webhook notification that the
// notifier cares about.
type payload struct {
	Event       string `json:"Event"`
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Server      struct {
		Version string `json:"Version"`
	} `json:"Server"`
	PackageVersionInfo struct {
		VersionStr  string `json:"versionStr"`
		InfoURL     string `json:"infoUrl"`
		Description string `json:"description"`
	} `json:"PackageVersionInfo"`
	Item struct {
		ID          string `json:"Id"`
		Name        string `json:"Name"`
		Type        string `json:"Type"`
		SeriesName  string `json:"SeriesName"`
		SeasonName  string `json:"SeasonName"`
		IndexNumber int    `json:"IndexNumber"`
	} `json:"Item"`
}

func parsePayload(data []byte) (notify.LibraryEvent, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return notify.LibraryEvent{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	if strings.TrimSpace(p.Event) == "" {
		return notify.LibraryEvent{}, fmt.Errorf("webhook payload missing Event field")
	}
	event := notify.LibraryEvent{
		Event:         p.Event,
		Title:         p.Title,
		ItemID:        p.Item.ID,
		ItemName:      p.Item.Name,
		ItemType:      p.Item.Type,
		SeriesName:    p.Item.SeriesName,
		SeasonName:    p.Item.SeasonName,
		EpisodeNumber: p.Item.IndexNumber,
		ServerVersion: p.Server.Version,
	}
	if strings.Contains(p.Event, notify.EventUpdateAvailable) {
		event.Description = p.PackageVersionInfo.Description
		event.NewVersion = p.PackageVersionInfo.VersionStr
		event.InfoURL = p.PackageVersionInfo.InfoURL
	} else {
		event.Description = p.Description
	}
	return event, nil
}
