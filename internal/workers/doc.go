// Package workers calculates worker pool sizes for the scan and thumbnail
// pipelines based on available CPU cores and task characteristics.
package workers
