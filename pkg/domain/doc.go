// Package domain contains the core domain entities shared across the exporter:
// the normalized per-entity metadata and daily records produced from the raw
// source document, and the bookkeeping records describing export runs. These
// types are free of infrastructure concerns so every layer can depend on them.
package domain
