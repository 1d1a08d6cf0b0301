// Package devloop implements the pyqck development loop: it watches project
// sources, debounces bursts of file events into batches, restarts the dev
// server and re-runs the configured checks pipeline after every batch.
package devloop
