package services

import (
	"context"
	"fmt"
	"strings"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
)

// VideoTranscript is the text of a video's caption track.
type VideoTranscript struct {
	VideoID string
	Title   string
	Text    string
}

// TranscriptFetcher turns a YouTube URL into note text.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoURL string) (*VideoTranscript, error)
}

type YouTubeService struct {
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
	}
}

// FetchTranscript prefers English captions and falls back to any language.
// The video title is best effort.
func (s *YouTubeService) FetchTranscript(ctx context.Context, videoURL string) (*VideoTranscript, error) {
	videoID, err := yt.ExtractVideoID(strings.TrimSpace(videoURL))
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"url": "Not a valid YouTube URL."}}
	}

	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return nil, &ExternalServiceError{
				Service:  "youtube transcript",
				Fallback: "No subtitles are available for this video.",
				Err:      err,
			}
		}
	}

	var parts []string
	for _, entry := range transcript.Entries {
		if text := strings.TrimSpace(entry.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return nil, &ExternalServiceError{
			Service:  "youtube transcript",
			Fallback: "No subtitles are available for this video.",
			Err:      fmt.Errorf("subtitle track for %s is empty", videoID),
		}
	}

	result := &VideoTranscript{VideoID: videoID, Text: strings.Join(parts, " ")}
	if video, err := s.ytClient.GetVideoContext(ctx, videoID); err == nil {
		result.Title = video.Title
	}
	return result, nil
}
