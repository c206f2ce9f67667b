// Package tiktok implements the livestream port against TikTok's public LIVE
// endpoints: room lookup via the profile live API, then cursor-based polling
// of the webcast message feed mapped onto typed events.
package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/creatorsconnections/liveboard/internal/livestream"
)

const (
	liveDetailURL = "https://www.tiktok.com/api-live/user/room/"
	messageURL    = "https://webcast.tiktok.com/webcast/im/fetch/"

	roomStatusLive = 2

	pollInterval   = time.Second
	requestTimeout = 10 * time.Second
	eventBuffer    = 256

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

type Client struct {
	httpClient *http.Client
	sessionID  string
}

// NewClient returns a TikTok LIVE source. sessionID is an optional logged-in
// session cookie needed for age-restricted broadcasts; empty is fine for
// public rooms.
func NewClient(sessionID string) livestream.Source {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		sessionID:  sessionID,
	}
}

type liveDetailResponse struct {
	Data struct {
		User struct {
			RoomID string `json:"roomId"`
			Status int    `json:"status"`
		} `json:"user"`
	} `json:"data"`
}

type messageFeedResponse struct {
	Cursor   string `json:"cursor"`
	Messages []struct {
		Method string `json:"method"`
		User   struct {
			UniqueID string `json:"uniqueId"`
		} `json:"user"`
		Gift struct {
			RepeatCount  int64 `json:"repeatCount"`
			DiamondCount int64 `json:"diamondCount"`
		} `json:"gift"`
		LikeCount int64 `json:"likeCount"`
		Action    int   `json:"action"`
	} `json:"messages"`
}

func (c *Client) IsLive(ctx context.Context, hostHandle string) (bool, error) {
	detail, err := c.fetchLiveDetail(ctx, hostHandle)
	if err != nil {
		return false, err
	}
	return detail.Data.User.Status == roomStatusLive && detail.Data.User.RoomID != "", nil
}

func (c *Client) Open(ctx context.Context, hostHandle string) (livestream.Stream, error) {
	detail, err := c.fetchLiveDetail(ctx, hostHandle)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve live room for @%s: %w", hostHandle, err)
	}
	roomID := detail.Data.User.RoomID
	if roomID == "" {
		return nil, fmt.Errorf("@%s has no live room", hostHandle)
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	s := &stream{
		client: c,
		roomID: roomID,
		host:   hostHandle,
		events: make(chan livestream.Event, eventBuffer),
		cancel: cancel,
	}
	go s.poll(streamCtx, detail.Data.User.Status == roomStatusLive)
	return s, nil
}

func (c *Client) fetchLiveDetail(ctx context.Context, hostHandle string) (*liveDetailResponse, error) {
	q := url.Values{}
	q.Set("aid", "1988")
	q.Set("sourceType", "54")
	q.Set("uniqueId", strings.TrimPrefix(hostHandle, "@"))
	body, err := c.get(ctx, liveDetailURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var detail liveDetailResponse
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("unexpected live detail payload: %w", err)
	}
	return &detail, nil
}

func (c *Client) fetchMessages(ctx context.Context, roomID, cursor string) (*messageFeedResponse, error) {
	q := url.Values{}
	q.Set("aid", "1988")
	q.Set("room_id", roomID)
	q.Set("resp_content_type", "json")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	body, err := c.get(ctx, messageURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	var feed messageFeedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("unexpected message feed payload: %w", err)
	}
	return &feed, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://www.tiktok.com/")
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.sessionID})
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiktok returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type stream struct {
	client *Client
	roomID string
	host   string
	events chan livestream.Event
	cancel context.CancelFunc
}

func (s *stream) Events() <-chan livestream.Event {
	return s.events
}

func (s *stream) Close() error {
	s.cancel()
	return nil
}

// poll drives the cursor-based message feed. One connect event is emitted as
// soon as the room is confirmed live, one end event when the room closes;
// transient fetch errors are logged and retried on the next tick.
func (s *stream) poll(ctx context.Context, liveNow bool) {
	defer close(s.events)

	connected := false
	if liveNow {
		s.emit(ctx, livestream.Event{Kind: livestream.EventConnect})
		connected = true
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	cursor := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		feed, err := s.client.fetchMessages(ctx, s.roomID, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Debug("tiktok message fetch failed", "error", err, "host", s.host)
			continue
		}
		if feed.Cursor != "" {
			cursor = feed.Cursor
		}
		if !connected && len(feed.Messages) > 0 {
			s.emit(ctx, livestream.Event{Kind: livestream.EventConnect})
			connected = true
		}
		for _, msg := range feed.Messages {
			ev, ended, ok := mapMessage(msg.Method, msg.User.UniqueID, msg.Gift.RepeatCount, msg.Gift.DiamondCount, msg.LikeCount, msg.Action)
			if !ok {
				continue
			}
			s.emit(ctx, ev)
			if ended {
				return
			}
		}
	}
}

func (s *stream) emit(ctx context.Context, ev livestream.Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// controlActionStreamEnded is the WebcastControlMessage action for a host
// ending the broadcast.
const controlActionStreamEnded = 3

func mapMessage(method, performer string, repeat, diamonds, likes int64, action int) (livestream.Event, bool, bool) {
	switch method {
	case "WebcastGiftMessage":
		return livestream.Event{Kind: livestream.EventGift, Performer: performer, Repeat: repeat, Diamonds: diamonds}, false, performer != ""
	case "WebcastLikeMessage":
		return livestream.Event{Kind: livestream.EventLike, Performer: performer, Likes: likes}, false, performer != ""
	case "WebcastChatMessage":
		return livestream.Event{Kind: livestream.EventComment, Performer: performer}, false, performer != ""
	case "WebcastControlMessage":
		if action == controlActionStreamEnded {
			return livestream.Event{Kind: livestream.EventEnd}, true, true
		}
		return livestream.Event{}, false, false
	default:
		return livestream.Event{}, false, false
	}
}
