// Package biz 提供 PDF 问答流水线的业务逻辑层。
//
// 该包将流水线拆分为以下组件：
//   - Chunker: 按字符滑动窗口切分文档
//   - Indexer: 批量嵌入文本块并写入向量索引，区分部分失败与全部失败
//   - Retriever: 嵌入问题并检索 top-k 文本块
//   - PromptAssembler: 用固定模板拼装上下文与问题
//   - Generator: 单次调用语言模型生成回答
//   - Pipeline: 组合以上组件，提供 Ingest 和 Ask 两个入口
package biz
