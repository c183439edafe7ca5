package reports

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/config"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func reportSlowMs() int64 {
	// Env: REPORT_SLOW_MS (default 500ms)
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	restaurant, _ := utils.GetRestaurantIdFromContext(ctx)
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	log.Printf("slow_report name=%s ms=%d restaurant_id=%s correlation_id=%s extra=%v", name, d.Milliseconds(), restaurant, cid, extra)
}

func reportCacheKey(ctx context.Context, filter *models.VarianceFilter) string {
	restaurant, _ := utils.GetRestaurantIdFromContext(ctx)
	filterJSON, _ := json.Marshal(filter)
	return fmt.Sprintf("varianceReport:%s:%x", restaurant, sha1.Sum(filterJSON))
}

func reportCacheLookup(ctx context.Context, filter *models.VarianceFilter) (*VarianceReport, bool) {
	if !reportCacheEnabled() {
		return nil, false
	}
	var cached VarianceReport
	ok, err := config.GetRedisObject(reportCacheKey(ctx, filter), &cached)
	if err != nil || !ok {
		return nil, false
	}
	return &cached, true
}

func reportCacheStore(ctx context.Context, filter *models.VarianceFilter, report *VarianceReport) {
	if !reportCacheEnabled() {
		return
	}
	_ = config.SetRedisObject(reportCacheKey(ctx, filter), report, reportCacheTTL())
}
