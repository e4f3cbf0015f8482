package infra

import (
	"os"
	"path"

	"github.com/Pyradex/acrputilities/domain/model"
	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
)

type DataBase struct {
	db *gorm.DB
}

func NewDataBase() (*DataBase, error) {
	dbpath := "./db/acrp_utilities.db"
	if os.Getenv("DB_PATH") != "" {
		dbpath = os.Getenv("DB_PATH")
	}
	if !path.IsAbs(dbpath) {
		dbpath = path.Join(os.Getenv("PWD"), dbpath)
	}
	db, err := gorm.Open("sqlite3", dbpath)
	if err != nil {
		return nil, err
	}
	db.AutoMigrate(&model.TicketLog{})
	db.AutoMigrate(&model.ModerationAction{})
	return &DataBase{db: db}, nil
}

func (d *DataBase) SaveTicketLog(log *model.TicketLog) error {
	return d.db.Save(log).Error
}

func (d *DataBase) GetRecentTicketLogs(botID string) ([]model.TicketLog, error) {
	var logs []model.TicketLog
	err := d.db.Where("bot_id = ?", botID).Order("closed_at desc").Limit(recentTicketLogsLimit).Find(&logs).Error
	return logs, err
}

func (d *DataBase) SaveModerationAction(action *model.ModerationAction) error {
	return d.db.Save(action).Error
}
