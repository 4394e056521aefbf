package dispatcher

import (
	"context"

	"github.com/shifthive/capturequeue/pkg/chatclient"
	"github.com/shifthive/capturequeue/pkg/notification"
)

// SendFuncFromSender adapts a chatclient.Sender into the SendFunc that
// notification.Repository.DispatchPending invokes per claimed row.
func SendFuncFromSender(s chatclient.Sender) notification.SendFunc {
	return func(ctx context.Context, n *notification.Notification) error {
		return s.Send(ctx, n.UserID, n.Message)
	}
}
