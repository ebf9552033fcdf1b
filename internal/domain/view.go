package domain

import "time"

type View struct {
	RoomId              string      `json:"roomId"`
	CreatedAt           time.Time   `json:"createdAt"`
	Queue               []QueueItem `json:"queue"`
	CurrentVideo        *QueueItem  `json:"currentVideo"`
	Settings            Settings    `json:"settings"`
	Playback            Playback    `json:"playback"`
	AllowNewControllers bool        `json:"allowNewControllers"`
}

type ControllerView struct {
	Id        string    `json:"id"`
	Username  string    `json:"username"`
	Color     int       `json:"color"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

type AdminView struct {
	View
	Controllers []ControllerView `json:"controllers"`
}

// View is the public face of a controller. The key is never part of it.
func (c Controller) View() ControllerView {
	return ControllerView{
		Id:        c.Id,
		Username:  c.Username,
		Color:     c.Color,
		Enabled:   c.Enabled,
		CreatedAt: c.CreatedAt,
	}
}

func (r *Room) Queue() []QueueItem {
	return append([]QueueItem{}, r.queue...)
}

func (r *Room) CurrentVideo() *QueueItem {
	if r.current == nil {
		return nil
	}

	current := *r.current
	return &current
}

func (r *Room) Settings() Settings {
	return r.settings
}

func (r *Room) Playback() Playback {
	return r.playback
}

func (r *Room) AllowNewControllers() bool {
	return r.allowNewControllers
}

func (r *Room) RoundRobin() *RoundRobin {
	return r.roundRobin
}

func (r *Room) View() View {
	return View{
		RoomId:              r.Id,
		CreatedAt:           r.CreatedAt,
		Queue:               r.Queue(),
		CurrentVideo:        r.CurrentVideo(),
		Settings:            r.settings,
		Playback:            r.playback,
		AllowNewControllers: r.allowNewControllers,
	}
}

func (r *Room) Controllers() []ControllerView {
	list := make([]ControllerView, 0, r.controllers.Length())
	for _, ctrl := range r.controllers.list {
		list = append(list, ctrl.View())
	}

	return list
}

func (r *Room) AdminView() AdminView {
	return AdminView{
		View:        r.View(),
		Controllers: r.Controllers(),
	}
}
