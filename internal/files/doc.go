// Package files discovers quarterly dataset files on disk.
//
// The Federal Reserve publishes one file per quarter, named after the
// release (24Q4-CreditCardBalances.csv). A dataset setting may therefore name
// a directory of releases instead of one file; ResolveDataset picks the most
// recent one.
//
//	files, err := files.NewDiscovery("data").FindDatasets(".")
//	path, err := files.ResolveDataset("data")
package files
