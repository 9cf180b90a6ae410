//go:build unit || e2e

package builder

import "time"

func Int64Ptr(v int64) *int64 { return &v }

func Float64Ptr(v float64) *float64 { return &v }

func StringPtr(v string) *string { return &v }

func TimePtr(v time.Time) *time.Time { return &v }
