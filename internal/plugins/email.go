// SPDX-License-Identifier: MIT
// Built-in notification plugin, grounded on
// server/service/email/email.go's net/smtp usage — kept at the
// EventSink interface boundary only (no templating/embed machinery,
// since spec.md's plugin surface is observation-only, not a mail
// service in its own right).
package plugins

import (
	"fmt"
	"net/smtp"

	"github.com/queued/queued/internal/model"
)

// EmailNotifier is a built-in EventSink that emails the configured
// recipient from OnStopTask, which the facade dispatches when a task is
// stopped through StopTask; a task whose child exits on its own raises
// no OnStopTask event and sends no mail. OnStopTask does nothing until
// both SMTPAddr and To are set.
type EmailNotifier struct {
	SMTPAddr string
	From     string
	To       string
}

func (e *EmailNotifier) Specification() Specification {
	return Specification{Name: "email-notifier", Version: "1.0.0", Description: "emails on task completion"}
}

func (e *EmailNotifier) Options() map[string]string {
	return map[string]string{"smtp_addr": e.SMTPAddr, "from": e.From, "to": e.To}
}

func (e *EmailNotifier) OnAddTask(model.Task)       {}
func (e *EmailNotifier) OnEditTask(model.Task)      {}
func (e *EmailNotifier) OnStartTask(model.Task)     {}
func (e *EmailNotifier) OnAddUser(model.User)       {}
func (e *EmailNotifier) OnEditUser(model.User)      {}
func (e *EmailNotifier) OnAddPlugin(string)         {}
func (e *EmailNotifier) OnRemovePlugin(string)      {}
func (e *EmailNotifier) OnEditOption(string, string) {}

// OnStopTask sends a one-line completion notice, best-effort.
func (e *EmailNotifier) OnStopTask(task model.Task) {
	if e.SMTPAddr == "" || e.To == "" {
		return
	}
	body := fmt.Sprintf("Subject: task %d finished\r\n\r\ntask %d has finished.\r\n", task.ID, task.ID)
	_ = smtp.SendMail(e.SMTPAddr, nil, e.From, []string{e.To}, []byte(body))
}

// NewSink constructs a built-in EventSink by plugin kind, for the
// POST /plugin/<name> load operation. kind is distinct from the
// registry name the caller chooses to register it under.
func NewSink(kind string, opts map[string]string) (EventSink, error) {
	switch kind {
	case "email-notifier":
		return &EmailNotifier{
			SMTPAddr: opts["smtp_addr"],
			From:     opts["from"],
			To:       opts["to"],
		}, nil
	default:
		return nil, fmt.Errorf("unknown plugin kind %q", kind)
	}
}
