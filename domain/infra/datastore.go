package infra

import (
	"time"

	"github.com/Pyradex/acrputilities/domain/model"
)

const recentTicketLogsLimit = 10

// Datastore is the audit archive behind the log channel. The workflow
// stores themselves are in-memory; only closures and moderation actions
// are written here.
type Datastore interface {
	// チケットのクローズ記録を保存する
	SaveTicketLog(*model.TicketLog) error
	// 最新のクローズ記録を取得する
	GetRecentTicketLogs(string) ([]model.TicketLog, error)
	// モデレーション操作を保存する
	SaveModerationAction(*model.ModerationAction) error
}

func timeNow() time.Time {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}
