package config

type WorkerKeyStruct struct {
	EnrollmentReconcileQueue string
}

var WorkerKey = &WorkerKeyStruct{
	EnrollmentReconcileQueue: "enrollment_reconcile_queue",
}
