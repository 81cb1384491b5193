package scenario

import "time"

// Stage identifies one step of a scenario run.
type Stage string

const (
	StageInit            Stage = "Init"
	StageAcquireMap      Stage = "AcquireMap"
	StageConvertNetwork  Stage = "ConvertNetwork"
	StageConvertPolygons Stage = "ConvertPolygons"
	StageGenerateTrips   Stage = "GenerateTrips"
	StageComputeRoutes   Stage = "ComputeRoutes"
	StageAnalyzeUsage    Stage = "AnalyzeUsage"
	StageComputeGeometry Stage = "ComputeGeometry"
	StageWriteConfigs    Stage = "WriteConfigs"
	StageCleanup         Stage = "Cleanup"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageInit,
	StageAcquireMap,
	StageConvertNetwork,
	StageConvertPolygons,
	StageGenerateTrips,
	StageComputeRoutes,
	StageAnalyzeUsage,
	StageComputeGeometry,
	StageWriteConfigs,
	StageCleanup,
}

// StageStatus is the outcome recorded for a stage.
type StageStatus string

const (
	StatusOK      StageStatus = "ok"
	StatusCached  StageStatus = "cached"
	StatusSkipped StageStatus = "skipped"
	StatusWarning StageStatus = "warning"
	StatusFailed  StageStatus = "failed"
)

// StageRecord is one entry of a run's stage trail.
type StageRecord struct {
	Stage    Stage         `json:"stage"`
	Status   StageStatus   `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Detail   string        `json:"detail,omitempty"`
}
