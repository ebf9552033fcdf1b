package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Video struct {
	Id           string
	Title        string
	ChannelTitle string
	IsPlaylist   bool
}

type QueueItem struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	IsPlaylist   bool   `json:"isPlaylist"`
	AddedBy      string `json:"addedBy"`
	AddedByColor int    `json:"addedByColor"`
	QueueId      int64  `json:"queueId"`
}

func (l Limits) validateVideo(v *Video) error {
	v.Id = strings.TrimSpace(v.Id)
	v.Title = strings.TrimSpace(v.Title)

	switch {
	case v.Id == "" || utf8.RuneCountInString(v.Id) > l.MaxVideoIdLength:
		return fmt.Errorf("%w: video id must be 1-%d characters", ErrInvalidInput, l.MaxVideoIdLength)
	case v.Title == "" || utf8.RuneCountInString(v.Title) > l.MaxTitleLength:
		return fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, l.MaxTitleLength)
	case utf8.RuneCountInString(v.ChannelTitle) > l.MaxChannelTitleLength:
		return fmt.Errorf("%w: channel title must not exceed %d characters", ErrInvalidInput, l.MaxChannelTitleLength)
	}

	return nil
}
