package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"rendezvous-crm/config"
	"rendezvous-crm/models"
)

// ExportMeetingsHandler выгружает подтвержденные рандеву в xlsx.
// Модераторская операция: структурированные ответы анкеты берутся из
// побочной таблицы, чтобы не парсить описание события обратно.
func ExportMeetingsHandler(c *gin.Context) {
	var meetings []models.MeetingInfo
	if err := config.DB.Preload("User").Order("created_at ASC").Find(&meetings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data for export"})
		return
	}

	f := excelize.NewFile()
	sheetName := "Rendez-vous"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Événement", "Client", "Sujet", "Chaine", "Réseaux", "Horaires", "Pris le"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, m := range meetings {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), m.EventID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), m.User.Login)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), m.Subject)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), m.ChainName)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), m.Medias)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), m.Schedule)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), m.CreatedAt.Format("02.01.2006 15:04"))
	}

	fileName := fmt.Sprintf("rendezvous_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
	}
}
