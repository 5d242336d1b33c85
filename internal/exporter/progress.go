package exporter

// ProgressEvent 导出进度事件（用于 UI 展示）
type ProgressEvent struct {
	Percent int
	Stage   string
}

func reportProgress(progress func(ProgressEvent), percent int, stage string) {
	if progress == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	progress(ProgressEvent{
		Percent: percent,
		Stage:   stage,
	})
}

// rowProgress 把行进度映射到 [from, to] 区间，每 step 行上报一次
func rowProgress(progress func(ProgressEvent), from, to, done, total, step int, stage string) {
	if progress == nil || total == 0 {
		return
	}
	if done != total && done%step != 0 {
		return
	}
	reportProgress(progress, from+(to-from)*done/total, stage)
}
