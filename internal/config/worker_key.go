package config

type WorkerKeyStruct struct {
	ScholarshipImportQueue  string
	ScholarshipArchiveQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ScholarshipImportQueue:  "scholarship_import_queue",
	ScholarshipArchiveQueue: "scholarship_archive_queue",
}
