package handlers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaginatedResponse - общий конверт постраничных ответов API.
type PaginatedResponse struct {
	Data        interface{} `json:"data"`
	TotalRows   int64       `json:"totalRows"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	PageSize    int         `json:"pageSize"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageParams читает page/pageSize из query и нормализует их.
func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(c.Query("pageSize"))
	switch {
	case size > maxPageSize:
		size = maxPageSize
	case size <= 0:
		size = defaultPageSize
	}
	return page, size
}

// Paginate - GORM-scope, накладывающий offset/limit страницы запроса.
func Paginate(c *gin.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		page, size := pageParams(c)
		return db.Offset((page - 1) * size).Limit(size)
	}
}

// CreatePaginatedResponse заворачивает выборку в конверт со счетчиками.
func CreatePaginatedResponse(c *gin.Context, data interface{}, totalRows int64) PaginatedResponse {
	page, size := pageParams(c)

	totalPages := 0
	if totalRows > 0 {
		totalPages = int(math.Ceil(float64(totalRows) / float64(size)))
	}

	return PaginatedResponse{
		Data:        data,
		TotalRows:   totalRows,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    size,
	}
}
