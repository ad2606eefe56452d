package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Scan level messages (info)
		"Scanning with the %s preset from %s...":                       "%[2]s から %[1]s プリセットでスキャン中...",
		"Starting scan (min interval %s, target %s)":                   "スキャンを開始します (最小間隔 %s, 目標 %s)",
		"Scan finished (%s): %d frames admitted, %d distinct payloads": "スキャン終了 (%s): 認識フレーム %d, 読み取り %d 件",
		"Decoded %d distinct payloads in %d ms":                        "%[2]d ms で %[1]d 件を読み取りました",
		"Summary saved to %s":                                          "サマリーを %s に保存しました",
		"Interrupted, shutting down...":                                "中断されました。シャットダウン中...",
		"Camera exhausted, waiting for the last detection":             "カメラ入力が終了しました。最後の認識を待っています",
		"Gave up waiting for the last detection":                       "最後の認識の待機を打ち切りました",
		"Failed to save stats: %s":                                     "統計の保存に失敗しました: %s",
		"Failed to write summary: %s":                                  "サマリーの書き込みに失敗しました: %s",
		"Failed to flush metrics: %s":                                  "メトリクスの送信に失敗しました: %s",

		// Camera session
		"Session %s started: camera %d, preview %s, sensor %d°": "セッション %s を開始: カメラ %d, プレビュー %s, センサー %d°",
		"Session %s stopped":                                    "セッション %s を停止しました",
		"Failed to start camera: %s":                            "カメラの起動に失敗しました: %s",
		"Preview size %s for target %s":                         "目標 %[2]s に対するプレビューサイズ %[1]s",
		"Bad rotation value: %s":                                "不正な回転値: %s",
		"Focus mode: %s":                                        "フォーカスモード: %s",
		"Autofocus off":                                         "オートフォーカスはオフです",
		"Autofocus cycle finished (success=%t)":                 "オートフォーカスの1サイクルが完了しました (成功=%t)",
		"Autofocus failed: %s":                                  "オートフォーカスに失敗しました: %s",

		// Frame coordination
		"Admitted frame %dx%d (%s)":                 "フレームを認識に回しました %dx%d (%s)",
		"Dropped frame %d: %s":                      "フレーム %d を破棄しました: %s",
		"Dropped result of frame %d after shutdown": "停止後に届いたフレーム %d の結果を破棄しました",
		"Coordinator shut down":                     "コーディネーターを停止しました",
		"Failed to save debug frame: %s":            "デバッグフレームの保存に失敗しました: %s",

		// Recognition
		"Decoded %s: %s":              "%s を読み取りました: %s",
		"Barcode reading failure: %s": "バーコードの読み取りに失敗しました: %s",

		// Frame sources
		"Loaded %d images at %s":   "%[2]s で %[1]d 枚の画像を読み込みました",
		"Skipping %s: %s":          "%s をスキップします: %s",
		"Dropped webcam frame: %s": "Webカメラのフレームを破棄しました: %s",
	})
}
