package worker

import (
	"github.com/sukritx/roommatebase/internal/service"
)

// StartActivityWorker registers the activity log handlers.
func StartActivityWorker(activity *service.ActivityService) {
	if activity == nil {
		return
	}
	activity.RegisterHandlers()
}
