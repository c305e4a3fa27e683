package ddb

// wavHeader returns a standard RIFF/WAVE header for 16-bit PCM audio,
// generalizing the teacher's fixed mono/22050Hz header to the sample rate
// and channel count each SND chunk declares for itself.
func wavHeader(dataLen int, sampleRate uint32, channels uint16) []byte {
	const bitsPerSample = uint16(16)

	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * uint32(blockAlign)
	chunkSize := uint32(36 + dataLen)
	dataLen32 := uint32(dataLen)

	header := make([]byte, 44)
	copy(header[0:], []byte("RIFF"))
	header[4] = byte(chunkSize)
	header[5] = byte(chunkSize >> 8)
	header[6] = byte(chunkSize >> 16)
	header[7] = byte(chunkSize >> 24)
	copy(header[8:], []byte("WAVEfmt "))
	header[16] = 16 // Subchunk1Size for PCM
	header[20] = 1  // AudioFormat PCM
	header[22] = byte(channels)
	header[23] = byte(channels >> 8)
	header[24] = byte(sampleRate)
	header[25] = byte(sampleRate >> 8)
	header[26] = byte(sampleRate >> 16)
	header[27] = byte(sampleRate >> 24)
	header[28] = byte(byteRate)
	header[29] = byte(byteRate >> 8)
	header[30] = byte(byteRate >> 16)
	header[31] = byte(byteRate >> 24)
	header[32] = byte(blockAlign)
	header[33] = byte(blockAlign >> 8)
	header[34] = byte(bitsPerSample)
	header[35] = byte(bitsPerSample >> 8)
	copy(header[36:], []byte("data"))
	header[40] = byte(dataLen32)
	header[41] = byte(dataLen32 >> 8)
	header[42] = byte(dataLen32 >> 16)
	header[43] = byte(dataLen32 >> 24)
	return header
}

// EncodeWav wraps payload (16-bit PCM samples) in a RIFF/WAVE container.
func EncodeWav(payload []byte, sampleRate uint32, channels uint16) []byte {
	header := wavHeader(len(payload), sampleRate, channels)
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out
}
