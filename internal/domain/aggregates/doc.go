// Package aggregates defines the review write boundaries: the asset status machine,
// comment threads and request assignment. Each method is one atomic transaction.
package aggregates
