package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type Controller struct {
	Id        string
	Key       string
	Username  string
	Enabled   bool
	Color     int
	CreatedAt time.Time
}

// controllers keeps registration order explicit; lookups go through the key index.
type controllers struct {
	list  []*Controller
	byKey map[string]*Controller
}

func newControllers() controllers {
	return controllers{byKey: make(map[string]*Controller)}
}

func (c controllers) Length() int {
	return len(c.list)
}

func (c *controllers) add(ctrl *Controller) {
	c.list = append(c.list, ctrl)
	c.byKey[ctrl.Key] = ctrl
}

func (c controllers) getByKey(key string) (*Controller, bool) {
	ctrl, ok := c.byKey[key]
	return ctrl, ok
}

func (c controllers) getById(id string) (*Controller, int, error) {
	for index, ctrl := range c.list {
		if ctrl.Id == id {
			return ctrl, index, nil
		}
	}

	return nil, 0, ErrControllerNotFound
}

func (c *controllers) removeById(id string) (*Controller, error) {
	ctrl, index, err := c.getById(id)
	if err != nil {
		return nil, err
	}

	c.list = append(c.list[:index], c.list[index+1:]...)
	delete(c.byKey, ctrl.Key)
	return ctrl, nil
}

const reservedNameChars = "[]"

func (l Limits) normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		return "", fmt.Errorf("%w: name is empty", ErrInvalidName)
	case strings.ContainsAny(name, reservedNameChars):
		return "", fmt.Errorf("%w: name must not contain %q", ErrInvalidName, reservedNameChars)
	case utf8.RuneCountInString(name) > l.MaxUsernameLength:
		return "", fmt.Errorf("%w: name must not exceed %d characters", ErrInvalidName, l.MaxUsernameLength)
	}

	return name, nil
}

// resolveName returns base, or "base [n]" with the smallest n >= 2 not in taken.
func resolveName(base string, taken map[string]bool) (string, error) {
	if !taken[base] {
		return base, nil
	}

	// len(taken)+2 candidates cannot all be taken.
	for n := 2; n <= len(taken)+2; n++ {
		candidate := fmt.Sprintf("%s [%d]", base, n)
		if !taken[candidate] {
			return candidate, nil
		}
	}

	return "", ErrNameConflict
}
