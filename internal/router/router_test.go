package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coupon-next/internal/admission"
	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/coupon"
	"github.com/coupon-next/internal/models"
	"github.com/coupon-next/internal/provider"
	"github.com/coupon-next/internal/repository"
	"github.com/coupon-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type apiResponse struct {
	Code       string          `json:"code"`
	HTTPStatus int             `json:"http_status"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func setupAPITest(t *testing.T, quantity, openHour int) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.CouponBatch{}, &models.IssuedCoupon{}, &models.CouponUsage{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", Mode: "debug"},
		Coupon: config.CouponConfig{
			Timezone:       "UTC",
			DailyQuantity:  quantity,
			DiscountAmount: "1000",
			OpenHour:       openHour,
			IssueMode:      "async",
		},
	}

	batchRepo := repository.NewCouponBatchRepository(db)
	issuedRepo := repository.NewIssuedCouponRepository(db)
	usageRepo := repository.NewCouponUsageRepository(db)
	counter := admission.NewMemoryCounter()

	container := &provider.Container{
		Config:        cfg,
		Counter:       counter,
		BatchRepo:     batchRepo,
		IssuedRepo:    issuedRepo,
		UsageRepo:     usageRepo,
		BatchService:  service.NewBatchService(batchRepo, counter, cfg.Coupon),
		IssueService:  service.NewIssueService(db, counter, batchRepo, issuedRepo, nil, nil, cfg.Coupon),
		CouponService: service.NewCouponService(db, batchRepo, issuedRepo, usageRepo, cfg.Coupon),
	}

	return SetupRouter(cfg, container), db
}

func seedTodayBatch(t *testing.T, db *gorm.DB, quantity int) *models.CouponBatch {
	t.Helper()
	now := time.Now().UTC()
	batch := &models.CouponBatch{
		Code:           coupon.TodayCode(now),
		TotalQuantity:  quantity,
		DiscountAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(1000)),
		StartDate:      now.Add(-time.Hour),
		EndDate:        coupon.EndOfDay(now),
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("seed batch failed: %v", err)
	}
	return batch
}

func doRequest(r *gin.Engine, method, path string, userID uint, body string) (*httptest.ResponseRecorder, apiResponse) {
	w := httptest.NewRecorder()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		req.Header.Set("X-User-Id", strconv.FormatUint(uint64(userID), 10))
	}
	r.ServeHTTP(w, req)
	var resp apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestIssueEndpoint(t *testing.T) {
	r, db := setupAPITest(t, 2, 0)
	seedTodayBatch(t, db, 2)

	// 缺少网关请求头
	w, resp := doRequest(r, http.MethodPost, "/api/coupon/issue", 0, "")
	if w.Code != http.StatusUnauthorized || resp.Code != "UNAUTHORIZED" {
		t.Fatalf("missing header want 401 UNAUTHORIZED got %d %s", w.Code, resp.Code)
	}

	// 首次领取
	w, resp = doRequest(r, http.MethodPost, "/api/coupon/issue", 1, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("first issue want 201 got %d body %s", w.Code, w.Body.String())
	}
	if resp.Code != "OK" || resp.HTTPStatus != http.StatusCreated {
		t.Fatalf("first issue body mismatch: %+v", resp)
	}

	// 重复领取
	w, resp = doRequest(r, http.MethodPost, "/api/coupon/issue", 1, "")
	if w.Code != http.StatusBadRequest || resp.Code != "ALREADY_ISSUED" {
		t.Fatalf("duplicate issue want 400 ALREADY_ISSUED got %d %s", w.Code, resp.Code)
	}

	// 第二个名额
	w, _ = doRequest(r, http.MethodPost, "/api/coupon/issue", 2, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("second user want 201 got %d", w.Code)
	}

	// 售罄
	w, resp = doRequest(r, http.MethodPost, "/api/coupon/issue", 3, "")
	if w.Code != http.StatusNotFound || resp.Code != "OUT_OF_STOCK" {
		t.Fatalf("exhausted want 404 OUT_OF_STOCK got %d %s", w.Code, resp.Code)
	}
}

func TestIssueEndpointBeforeOpenHour(t *testing.T) {
	// 开抢时间设为 24 点，任何时刻都未开抢
	r, db := setupAPITest(t, 2, 24)
	seedTodayBatch(t, db, 2)

	w, resp := doRequest(r, http.MethodPost, "/api/coupon/issue", 1, "")
	if w.Code != http.StatusBadRequest || resp.Code != "NOT_YET_OPEN" {
		t.Fatalf("before open want 400 NOT_YET_OPEN got %d %s", w.Code, resp.Code)
	}
}

func TestCouponQueryAndUseEndpoints(t *testing.T) {
	r, db := setupAPITest(t, 5, 0)
	batch := seedTodayBatch(t, db, 5)

	if w, _ := doRequest(r, http.MethodPost, "/api/coupon/issue", 7, ""); w.Code != http.StatusCreated {
		t.Fatalf("issue want 201 got %d", w.Code)
	}

	// 持券数量
	w, resp := doRequest(r, http.MethodGet, "/api/coupon/count", 7, "")
	if w.Code != http.StatusOK {
		t.Fatalf("count want 200 got %d", w.Code)
	}
	var countData struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(resp.Data, &countData); err != nil || countData.Count != 1 {
		t.Fatalf("count want 1 got %s (err=%v)", string(resp.Data), err)
	}

	// 持券列表
	w, resp = doRequest(r, http.MethodGet, "/api/coupon", 7, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list want 200 got %d", w.Code)
	}
	var listData struct {
		Coupons []models.IssuedCoupon `json:"coupons"`
	}
	if err := json.Unmarshal(resp.Data, &listData); err != nil || len(listData.Coupons) != 1 {
		t.Fatalf("list want 1 coupon got %s (err=%v)", string(resp.Data), err)
	}

	// 批次详情
	w, _ = doRequest(r, http.MethodGet, fmt.Sprintf("/api/coupon/info?coupon_id=%d", batch.ID), 7, "")
	if w.Code != http.StatusOK {
		t.Fatalf("info want 200 got %d", w.Code)
	}
	w, resp = doRequest(r, http.MethodGet, "/api/coupon/info?coupon_id=999", 7, "")
	if w.Code != http.StatusNotFound || resp.Code != "BATCH_NOT_FOUND" {
		t.Fatalf("missing info want 404 BATCH_NOT_FOUND got %d %s", w.Code, resp.Code)
	}

	// 核销
	body := fmt.Sprintf(`{"coupon_id": %d, "funding_id": 11}`, batch.ID)
	w, _ = doRequest(r, http.MethodPost, "/api/coupon/use", 7, body)
	if w.Code != http.StatusOK {
		t.Fatalf("use want 200 got %d body %s", w.Code, w.Body.String())
	}
	w, resp = doRequest(r, http.MethodPost, "/api/coupon/use", 7, body)
	if w.Code != http.StatusNotFound || resp.Code != "COUPON_NOT_FOUND" {
		t.Fatalf("reuse want 404 COUPON_NOT_FOUND got %d %s", w.Code, resp.Code)
	}
}
