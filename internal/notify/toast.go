// Package notify wires the dispatcher's "get-<kind>-toast" event family to
// presentation backends. The core only fixes the event name and payload
// shape (§6); everything below — toast rendering, external delivery — is
// an out-of-core collaborator per §1.
package notify

import (
	"fmt"
	"runtime"

	"github.com/go-toast/toast"

	"github.com/studyfrog/core/internal/dispatch"
)

// ToastNotifier renders "get-<kind>-toast" payloads as Windows toast
// notifications. On any other OS Show displays nothing and returns an
// error, matching the source's platform guard.
type ToastNotifier struct {
	appID        string
	dashboardURL string
}

// NewToastNotifier returns a notifier for appID, or "StudyFrog" if empty.
func NewToastNotifier(appID string) *ToastNotifier {
	if appID == "" {
		appID = "StudyFrog"
	}
	return &ToastNotifier{appID: appID, dashboardURL: "http://localhost:8080"}
}

// Show renders a single toast with title/message. Returns an error on any
// OS but Windows, same as the source's guard.
func (t *ToastNotifier) Show(title, message string) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("notify: toast notifications only supported on windows")
	}
	notification := toast.Notification{
		AppID:   t.appID,
		Title:   title,
		Message: message,
		Audio:   toast.Default,
		Actions: []toast.Action{
			{Type: "protocol", Label: "Open", Arguments: t.dashboardURL},
		},
	}
	return notification.Push()
}

// IsSupported reports whether this platform can actually display a toast.
func (t *ToastNotifier) IsSupported() bool {
	return runtime.GOOS == "windows"
}

// RegisterHandler subscribes t to every "get-<kind>-toast" event name
// passed in kinds, under the GLOBAL namespace. A handler's payload must
// carry "title" and "message" strings; a failed Show is captured into the
// dispatch response rather than aborting sibling handlers, per §4.4.2.
func (t *ToastNotifier) RegisterHandler(d *dispatch.Dispatcher, kinds ...string) {
	for _, kind := range kinds {
		event := "get-" + kind + "-toast"
		d.Subscribe(event, func(payload map[string]any) (any, error) {
			title, _ := payload["title"].(string)
			message, _ := payload["message"].(string)
			if err := t.Show(title, message); err != nil {
				return nil, err
			}
			return true, nil
		}, dispatch.Global, true, 0)
	}
}
