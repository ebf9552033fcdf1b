package domain

// Limits bounds what a single room accepts.
type Limits struct {
	MaxControllers        int
	MaxQueueLength        int
	MaxUsernameLength     int
	MaxTitleLength        int
	MaxVideoIdLength      int
	MaxChannelTitleLength int
}

func DefaultLimits() Limits {
	return Limits{
		MaxControllers:        50,
		MaxQueueLength:        100,
		MaxUsernameLength:     30,
		MaxTitleLength:        200,
		MaxVideoIdLength:      64,
		MaxChannelTitleLength: 200,
	}
}
