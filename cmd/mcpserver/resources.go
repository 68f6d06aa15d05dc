package main

import (
	"context"
	"encoding/json"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/rpc"
	"github.com/watchloop/observatory/internal/storage"
)

const (
	uriConversations = "observatory://conversations"
	uriSpeakers      = "observatory://speakers"
	uriScreenRecent  = "observatory://screen/recent"
)

func registerResources(server *rpc.Server, store *storage.Store) {
	server.RegisterResource(rpc.Resource{
		URI:         uriConversations,
		Name:        "Recent conversations",
		Description: "The most recently recorded conversations",
		MimeType:    "application/json",
	})
	server.RegisterResource(rpc.Resource{
		URI:         uriSpeakers,
		Name:        "Speaker statistics",
		Description: "Aggregate conversation time and confidence per speaker",
		MimeType:    "application/json",
	})
	server.RegisterResource(rpc.Resource{
		URI:         uriScreenRecent,
		Name:        "Recent screen activity",
		Description: "The most recently captured screen frames",
		MimeType:    "application/json",
	})
	server.SetResourceReader(resourceReader(store))
}

func resourceReader(store *storage.Store) rpc.ResourceReader {
	return func(ctx context.Context, uri string) ([]byte, string, error) {
		var data any
		var err error

		switch uri {
		case uriConversations:
			var limit int64 = 20
			data, err = store.ListConversations(ctx, &limit)
		case uriSpeakers:
			data, err = store.GetSpeakerStats(ctx)
		case uriScreenRecent:
			data, err = store.RecentFrames(ctx, 20)
		default:
			return nil, "", apperrors.Newf(apperrors.KindSurfaced, apperrors.CodeInternal, "unknown resource %q", uri)
		}
		if err != nil {
			return nil, "", err
		}

		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, "", err
		}
		return encoded, "application/json", nil
	}
}
