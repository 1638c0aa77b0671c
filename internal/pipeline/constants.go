package pipeline

// bytesPerFloat64 is used for memory accounting of stage matrices.
const bytesPerFloat64 = 8
